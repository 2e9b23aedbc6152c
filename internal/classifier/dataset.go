package classifier

// Example is one labelled training phrase.
type Example struct {
	Text  string
	Label string
}

// Categories lists the labels the bundled model predicts.
var Categories = []string{
	"Food", "Rent", "Utilities", "Salary", "Equipment",
	"Marketing", "Transport", "Finance", "Other",
}

// TrainingSet is the bundled corpus of business expense descriptions in
// English and Russian.
var TrainingSet = []Example{
	{"lunch at restaurant", "Food"},
	{"coffee starbucks", "Food"},
	{"grocery store", "Food"},
	{"supermarket purchase", "Food"},
	{"food delivery uber eats", "Food"},
	{"pizza delivery", "Food"},
	{"breakfast cafe", "Food"},
	{"dinner restaurant", "Food"},
	{"fast food", "Food"},
	{"bakery", "Food"},
	{"market vegetables", "Food"},
	{"meal prep", "Food"},
	{"catering service", "Food"},

	{"office rent", "Rent"},
	{"monthly rent payment", "Rent"},
	{"warehouse rent", "Rent"},
	{"property rental", "Rent"},

	{"electricity bill", "Utilities"},
	{"water bill", "Utilities"},
	{"internet subscription", "Utilities"},
	{"phone bill", "Utilities"},
	{"gas utility", "Utilities"},
	{"heating bill", "Utilities"},
	{"utility payment", "Utilities"},

	{"employee salary", "Salary"},
	{"payroll payment", "Salary"},
	{"staff wages", "Salary"},
	{"freelancer payment", "Salary"},
	{"contractor fee", "Salary"},
	{"bonus payment", "Salary"},
	{"hr payroll", "Salary"},
	{"worker compensation", "Salary"},

	{"office equipment", "Equipment"},
	{"laptop purchase", "Equipment"},
	{"printer purchase", "Equipment"},
	{"server hardware", "Equipment"},
	{"software license", "Equipment"},
	{"computer repair", "Equipment"},
	{"monitor purchase", "Equipment"},
	{"machinery", "Equipment"},
	{"tools purchase", "Equipment"},
	{"phone purchase", "Equipment"},

	{"google ads", "Marketing"},
	{"facebook advertising", "Marketing"},
	{"marketing campaign", "Marketing"},
	{"social media ads", "Marketing"},
	{"flyer printing", "Marketing"},
	{"seo services", "Marketing"},
	{"promotional materials", "Marketing"},
	{"brand design", "Marketing"},
	{"influencer payment", "Marketing"},
	{"email marketing", "Marketing"},

	{"taxi uber", "Transport"},
	{"fuel gasoline", "Transport"},
	{"car maintenance", "Transport"},
	{"flight ticket", "Transport"},
	{"train ticket", "Transport"},
	{"parking fee", "Transport"},
	{"public transport", "Transport"},
	{"vehicle insurance", "Transport"},
	{"delivery courier", "Transport"},
	{"car rental", "Transport"},

	{"bank fee", "Finance"},
	{"loan repayment", "Finance"},
	{"interest payment", "Finance"},
	{"accounting services", "Finance"},
	{"tax payment", "Finance"},
	{"insurance premium", "Finance"},
	{"investment", "Finance"},
	{"wire transfer fee", "Finance"},

	{"office supplies", "Other"},
	{"cleaning service", "Other"},
	{"subscription service", "Other"},
	{"training course", "Other"},
	{"book purchase", "Other"},
	{"conference fee", "Other"},
	{"legal services", "Other"},
	{"miscellaneous expense", "Other"},

	{"обед в ресторане", "Food"},
	{"кофе", "Food"},
	{"продукты супермаркет", "Food"},
	{"аренда офиса", "Rent"},
	{"оплата аренды", "Rent"},
	{"электричество", "Utilities"},
	{"коммунальные услуги", "Utilities"},
	{"интернет", "Utilities"},
	{"зарплата сотрудника", "Salary"},
	{"выплата зарплаты", "Salary"},
	{"ноутбук покупка", "Equipment"},
	{"оборудование", "Equipment"},
	{"реклама", "Marketing"},
	{"маркетинг кампания", "Marketing"},
	{"такси", "Transport"},
	{"топливо", "Transport"},
	{"банковская комиссия", "Finance"},
	{"налоги", "Finance"},
	{"канцтовары", "Other"},
	{"прочие расходы", "Other"},
}
