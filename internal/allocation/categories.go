// Package allocation implements the transaction allocation engines: rule
// based suggestion, correction learning, LLM fallback, batch jobs and the
// auto-allocation scheduler.
package allocation

import "github.com/lorenco/sean/internal/model"

// Categories is the predefined South African accounting category set with
// vendor and keyword matching lists.
var Categories = []model.Category{
	{
		Code:  "BANK_CHARGES",
		Label: "Bank Charges",
		Keywords: []string{
			"bank fee", "service fee", "atm", "card fee", "monthly fee", "admin fee",
			"cash handling", "account fee", "cheque fee", "statement fee", "swift",
			"fnb fee", "absa fee", "nedbank fee", "standard bank fee", "capitec fee",
			"card replacement", "debit order fee", "eft fee", "notification fee",
			"overdraft fee", "stop order fee", "unpaid fee", "dishonour fee",
			"withdrawal fee", "enquiry fee", "balance enquiry",
		},
	},
	{
		Code:  "TELEPHONE",
		Label: "Telephone & Communications",
		Keywords: []string{
			"telkom", "vodacom", "mtn", "cell c", "fibre", "internet", "airtime",
			"rain", "afrihost", "webafrica", "cool ideas", "vox", "rsaweb",
			"neotel", "liquid telecom", "openserve", "herotel", "frogfoot",
			"data bundle", "mobile", "cellular", "telecoms", "broadband", "adsl",
			"vdsl", "lte", "5g", "wifi", "wi-fi", "telephone line", "voip",
			"microsoft teams", "zoom subscription", "skype",
		},
	},
	{
		Code:  "ELECTRICITY",
		Label: "Electricity & Utilities",
		Keywords: []string{
			"eskom", "city power", "electricity", "prepaid", "municipal",
			"city of johannesburg", "city of cape town", "city of tshwane",
			"ethekwini", "ekurhuleni", "nelson mandela bay", "buffalo city",
			"mangaung", "power", "kwh", "kilowatt", "electric", "utility",
			"smart meter", "meter reading",
		},
	},
	{
		Code:  "WATER",
		Label: "Water & Rates",
		Keywords: []string{
			"water", "rates", "municipal", "refuse", "sewage", "sanitation",
			"waste removal", "property rates", "assessment rates", "joburg water",
			"rand water", "umgeni water",
		},
	},
	{
		Code:  "RENT",
		Label: "Rent & Premises",
		Keywords: []string{
			"rent", "lease", "premises", "property", "rental", "tenancy",
			"landlord", "letting", "office space", "warehouse", "storage",
			"parking", "monthly rent", "commercial rent", "industrial rent",
		},
	},
	{
		Code:  "SALARIES",
		Label: "Salaries & Wages",
		Keywords: []string{
			"salary", "wage", "payroll", "staff", "employee", "nett pay",
			"net salary", "gross salary", "commission", "bonus", "overtime",
			"leave pay", "thirteenth cheque", "13th cheque",
		},
	},
	{
		Code:  "PAYE",
		Label: "PAYE & Employee Tax",
		Keywords: []string{
			"paye", "pay as you earn", "employee tax", "sars paye", "efiling paye",
			"tax deduction", "income tax deduction",
		},
	},
	{
		Code:  "UIF",
		Label: "UIF Contributions",
		Keywords: []string{
			"uif", "unemployment insurance", "uif contribution", "labour department",
			"department of labour",
		},
	},
	{
		Code:  "SDL",
		Label: "Skills Development Levy",
		Keywords: []string{
			"sdl", "skills development", "skills levy", "seta", "training levy",
		},
	},
	{
		Code:  "FUEL",
		Label: "Fuel & Motor Expenses",
		Keywords: []string{
			"fuel", "petrol", "diesel", "engen", "shell", "bp", "caltex", "sasol",
			"total", "puma energy", "astron", "virgin active fuel", "ez gas",
			"motorist", "garage", "filling station", "service station",
			"car wash", "oil change", "tyre", "tire", "battery", "motor spares",
			"autozone", "midas", "tiger wheel", "supa quick", "hi-q",
			"dunlop", "goodyear", "bridgestone", "vehicle service", "car service",
			"toll", "n1 toll", "n3 toll", "sanral", "etoll", "e-toll",
		},
	},
	{
		Code:  "INSURANCE",
		Label: "Insurance",
		Keywords: []string{
			"insurance", "sanlam", "old mutual", "discovery", "outsurance", "santam",
			"hollard", "momentum", "liberty", "pps", "clientele", "telesure",
			"dial direct", "budget insurance", "miway", "king price", "first for women",
			"auto & general", "ooba", "hippo", "policy", "premium", "cover",
			"indemnity", "assurance", "short term", "long term", "life cover",
			"vehicle insurance", "car insurance", "building insurance",
			"contents insurance", "business insurance", "liability insurance",
		},
	},
	{
		Code:  "STATIONERY",
		Label: "Stationery & Office Supplies",
		Keywords: []string{
			"stationery", "office", "waltons", "makro", "supplies", "paper",
			"toner", "ink", "cartridge", "pen", "printer", "ream", "files",
			"folders", "envelopes", "staples", "clip", "tape", "glue",
			"takealot office", "incredible connection", "game office",
			"cna", "exclusive books", "office national", "konica minolta",
		},
	},
	{
		Code:  "PROFESSIONAL_FEES",
		Label: "Professional Fees",
		Keywords: []string{
			"attorney", "lawyer", "accountant", "audit", "consulting", "consultant",
			"legal", "advocate", "counsel", "tax practitioner", "bookkeeper",
			"financial advisor", "advisor", "advisory", "professional service",
			"deloitte", "pwc", "kpmg", "ey", "ernst young", "bdo", "mazars",
			"grant thornton", "rsm", "moore", "nolands", "saica", "saipa",
		},
	},
	{
		Code:  "ADVERTISING",
		Label: "Advertising & Marketing",
		Keywords: []string{
			"advertising", "marketing", "facebook", "google ads", "promo",
			"instagram", "linkedin", "twitter", "social media", "seo",
			"digital marketing", "print media", "radio", "billboard", "signage",
			"flyer", "brochure", "business card", "banner", "promotional",
			"sponsorship", "media24", "naspers", "multichoice", "dstv ad",
			"cape talk", "702", "jacaranda fm", "east coast radio",
		},
	},
	{
		Code:  "REPAIRS",
		Label: "Repairs & Maintenance",
		Keywords: []string{
			"repair", "maintenance", "service", "fix", "plumber", "electrician",
			"handyman", "contractor", "building maintenance", "aircon",
			"air conditioning", "hvac", "pest control", "cleaning service",
			"garden service", "landscaping", "painting", "renovation",
			"builders warehouse", "cashbuild", "mica", "tile africa",
		},
	},
	{
		Code:  "ENTERTAINMENT",
		Label: "Entertainment & Meals",
		Keywords: []string{
			"entertainment", "restaurant", "catering", "meal", "lunch", "dinner",
			"breakfast", "coffee", "cafe", "wimpy", "spur", "nandos", "steers",
			"mcdonalds", "kfc", "burger king", "debonairs", "romans", "fishaways",
			"ocean basket", "news cafe", "mugg bean", "vida", "seattle",
			"starbucks", "woolworths food", "client entertainment", "staff function",
		},
	},
	{
		Code:  "GROCERIES",
		Label: "Groceries & Consumables",
		Keywords: []string{
			"groceries", "food", "pick n pay", "checkers", "shoprite", "spar",
			"woolworths", "food lover", "fruit veg", "makro food", "game food",
			"kitchen", "tea", "coffee", "milk", "sugar", "snacks", "refreshments",
			"staff kitchen", "office supplies food",
		},
	},
	{
		Code:  "SUBSCRIPTIONS",
		Label: "Subscriptions & Software",
		Keywords: []string{
			"subscription", "software", "license", "microsoft", "adobe", "zoom",
			"dropbox", "google workspace", "office 365", "xero", "sage",
			"quickbooks", "pastel", "payspace", "simplepay", "slack", "asana",
			"monday", "notion", "canva", "mailchimp", "hubspot", "salesforce",
			"netflix", "showmax", "dstv", "apple", "spotify", "youtube premium",
			"linkedin premium", "domain registration", "hosting", "aws", "azure",
		},
	},
	{
		Code:  "TRANSPORT",
		Label: "Transport & Delivery",
		Keywords: []string{
			"courier", "delivery", "transport", "uber", "bolt", "taxi",
			"the courier guy", "ram", "fastway", "dawn wing", "dhl", "fedex",
			"ups", "postnet", "post office", "aramex", "time freight",
			"super group", "imperial", "flight", "bus ticket", "train",
			"gautrain", "prasa", "greyhound", "intercape", "translux",
		},
	},
	{
		Code:  "TRAVEL",
		Label: "Travel & Accommodation",
		Keywords: []string{
			"flight", "airline", "saa", "flysafair", "kulula", "mango", "airlink",
			"british airways", "emirates", "qatar", "hotel", "lodge", "bnb",
			"airbnb", "booking.com", "travelstart", "flight centre", "sure travel",
			"accommodation", "guesthouse", "car hire", "avis", "hertz", "budget car",
			"europcar", "first car", "tempest", "travel agent",
		},
	},
	{
		Code:  "MEDICAL",
		Label: "Medical Expenses",
		Keywords: []string{
			"medical", "doctor", "pharmacy", "clicks", "dischem", "hospital",
			"netcare", "mediclinic", "life healthcare", "nhls", "pathcare",
			"ampath", "lancet", "medical aid", "discovery health", "bonitas",
			"gems", "medihelp", "momentum health", "fedhealth", "bestmed",
			"prescription", "medication", "script", "specialist", "dentist",
			"optometrist", "physiotherapy", "occupational health",
		},
	},
	{
		Code:  "SECURITY",
		Label: "Security Services",
		Keywords: []string{
			"security", "adt", "fidelity", "chubb", "g4s", "css tactical",
			"armed response", "alarm", "cctv", "surveillance", "access control",
			"guard", "patrol", "monitoring",
		},
	},
	{
		Code:  "CLEANING",
		Label: "Cleaning Services",
		Keywords: []string{
			"cleaning", "cleaner", "domestic", "janitorial", "hygiene",
			"bidvest steiner", "rentokil", "initial", "sanitary", "waste management",
			"refuse collection",
		},
	},
	{
		Code:  "IT_EQUIPMENT",
		Label: "IT Equipment & Hardware",
		Keywords: []string{
			"computer", "laptop", "desktop", "server", "monitor", "keyboard",
			"mouse", "hard drive", "ssd", "ram", "memory", "incredible connection",
			"takealot tech", "evetech", "wootware", "rectron", "mustek",
			"dell", "hp", "lenovo", "apple mac", "network", "router", "switch",
		},
	},
	{
		Code:  "FURNITURE",
		Label: "Furniture & Fittings",
		Keywords: []string{
			"furniture", "desk", "chair", "cabinet", "shelf", "table",
			"mr price home", "home", "@home", "coricraft", "weylandts",
			"furniture city", "lewis", "russells", "bradlows", "joshua doore",
		},
	},
	{
		Code:     "VAT_INPUT",
		Label:    "VAT Input",
		Keywords: []string{},
	},
	{
		Code:     "VAT_OUTPUT",
		Label:    "VAT Output",
		Keywords: []string{},
	},
	{
		Code:  "VAT_PAYMENT",
		Label: "VAT Payment to SARS",
		Keywords: []string{
			"sars vat", "vat payment", "vat201", "efiling vat",
		},
	},
	{
		Code:  "PROVISIONAL_TAX",
		Label: "Provisional Tax",
		Keywords: []string{
			"provisional tax", "itr6", "sars provisional", "first provisional",
			"second provisional", "third provisional", "top up",
		},
	},
	{
		Code:  "COMPANY_TAX",
		Label: "Company Tax / Income Tax",
		Keywords: []string{
			"company tax", "corporate tax", "income tax", "sars income",
			"itr14", "assessment", "tax assessment",
		},
	},
	{
		Code:  "DRAWINGS",
		Label: "Drawings",
		Keywords: []string{
			"drawing", "owner", "personal", "director loan", "member loan",
			"shareholder", "distribution",
		},
	},
	{
		Code:  "CAPITAL",
		Label: "Capital Contributions",
		Keywords: []string{
			"capital", "investment", "shareholder contribution", "member contribution",
			"capital injection", "equity",
		},
	},
	{
		Code:  "LOAN_REPAYMENT",
		Label: "Loan Repayment",
		Keywords: []string{
			"loan", "finance", "wesbank", "mfc", "nedbank finance", "absa vehicle",
			"fnb vehicle", "standard bank finance", "sasfin", "bidvest bank",
			"business loan", "term loan", "instalment", "asset finance",
		},
	},
	{
		Code:  "INTEREST_RECEIVED",
		Label: "Interest Received",
		Keywords: []string{
			"interest credit", "interest earned", "interest income", "savings interest",
		},
	},
	{
		Code:  "INTEREST_PAID",
		Label: "Interest Paid",
		Keywords: []string{
			"interest debit", "interest charged", "finance charge", "loan interest",
			"overdraft interest",
		},
	},
	{
		Code:  "REVENUE",
		Label: "Revenue/Income",
		Keywords: []string{
			"payment received", "deposit", "eft in", "credit", "customer payment",
			"debtor payment", "invoice payment", "sales", "income received",
		},
	},
	{
		Code:  "STOCK_PURCHASES",
		Label: "Stock/Inventory Purchases",
		Keywords: []string{
			"stock", "inventory", "merchandise", "goods", "product purchase",
			"supplier", "wholesale", "makro wholesale", "cash carry",
		},
	},
	{
		Code:  "CREDITOR_PAYMENT",
		Label: "Creditor/Supplier Payment",
		Keywords: []string{
			"creditor", "supplier payment", "account payment", "vendor payment",
		},
	},
	{
		Code:  "DEBTOR_RECEIPT",
		Label: "Debtor/Customer Receipt",
		Keywords: []string{
			"debtor", "customer receipt", "client payment", "receivable",
		},
	},
	{
		Code:  "REFUND",
		Label: "Refund Received/Given",
		Keywords: []string{
			"refund", "reversal", "credit note", "return", "reimburse",
		},
	},
	{
		Code:  "DONATION",
		Label: "Donations & CSI",
		Keywords: []string{
			"donation", "charity", "ngo", "npc", "section 18a", "csi",
			"corporate social", "gift", "contribution",
		},
	},
	{
		Code:  "TRAINING",
		Label: "Training & Education",
		Keywords: []string{
			"training", "course", "seminar", "workshop", "conference",
			"education", "cpd", "continuing professional", "certification",
			"unisa", "wits", "uct", "stellenbosch", "up", "ukzn",
		},
	},
	{
		Code:  "MEMBERSHIP",
		Label: "Memberships & Subscriptions",
		Keywords: []string{
			"membership", "member fee", "annual fee", "registration fee",
			"saica member", "saipa member", "cima", "acca", "professional body",
			"chamber of commerce", "business forum",
		},
	},
	{
		Code:  "PENALTIES",
		Label: "Penalties & Fines",
		Keywords: []string{
			"penalty", "fine", "late payment", "admin penalty", "sars penalty",
			"traffic fine", "municipal fine", "interest penalty",
		},
	},
	{
		Code:     "OTHER",
		Label:    "Other/Unallocated",
		Keywords: []string{},
	},
}

// CategoryOther is the catch-all category for unallocatable transactions.
const CategoryOther = "OTHER"

// maxKeywordScore is the denominator for keyword confidence: twice the
// length of the longest keyword across all categories.
var maxKeywordScore = func() int {
	longest := 0
	for _, cat := range Categories {
		for _, kw := range cat.Keywords {
			if len(kw) > longest {
				longest = len(kw)
			}
		}
	}
	return longest * 2
}()

// FindCategory returns the predefined category for a code, or nil.
func FindCategory(code string) *model.Category {
	for i := range Categories {
		if Categories[i].Code == code {
			return &Categories[i]
		}
	}
	return nil
}

// CategoryLabel resolves a code to its label, falling back to the code
// itself for unknown (client-specific) categories.
func CategoryLabel(code string) string {
	if cat := FindCategory(code); cat != nil {
		return cat.Label
	}
	return code
}
