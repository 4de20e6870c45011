package hierarchy

// AdultCensus returns the hand-authored taxonomy for the categorical
// quasi-identifiers of the adult census dataset: gender, country, education,
// marital_status and occupation. The groupings are domain knowledge, not
// learned from data.
func AdultCensus() *Catalog {
	c := NewCatalog()
	c.Register("gender", genderTree())
	c.Register("country", countryTree())
	c.Register("education", educationTree())
	c.Register("marital_status", maritalStatusTree())
	c.Register("occupation", occupationTree())
	return c
}

func genderTree() *Tree {
	b := NewBuilder("Gender")
	b.AddAll(Root, "Male", "Female")
	return b.MustBuild()
}

func countryTree() *Tree {
	b := NewBuilder("World")
	northAmerica := b.Add(Root, "North-America")
	centreSouthAmerica := b.Add(Root, "Centre-South-America")
	asia := b.Add(Root, "Asia")
	europe := b.Add(Root, "Europe")

	b.AddAll(northAmerica, "Canada", "Mexico", "United-States")
	b.AddAll(centreSouthAmerica,
		"Columbia", "Cuba", "Dominican Republic", "Ecuador", "El-Salvador",
		"Guatemala", "Haiti", "Honduras", "Jamaica", "Nicaragua",
		"Outlying-US(Guam-USVI-etc)", "Peru", "Puerto-Rico", "Trinidad&Tobago")
	b.AddAll(asia,
		"Cambodia", "China", "Hong", "India", "Iran", "Japan", "Laos",
		"Philippines", "South", "Taiwan", "Thailand", "Vietnam")
	b.AddAll(europe,
		"England", "France", "Germany", "Greece", "Holand-Netherlands",
		"Hungary", "Ireland", "Italy", "Poland", "Portugal", "Scotland",
		"Yugoslavia")
	return b.MustBuild()
}

func educationTree() *Tree {
	b := NewBuilder("Education")
	low := b.Add(Root, "Low")
	medium := b.Add(Root, "Medium")
	high := b.Add(Root, "High")

	b.AddAll(low, "Kinder", "Preschool", "1st-4th", "5th-6th", "7th-8th",
		"9th", "10th", "11th", "12th")
	b.AddAll(medium, "HS-grad", "Some-college", "Assoc-acdm", "Assoc-voc",
		"Prof-school")
	b.AddAll(high, "Bachelors", "Masters", "Doctorate")
	return b.MustBuild()
}

func maritalStatusTree() *Tree {
	b := NewBuilder("Marital-Status")
	unmarried := b.Add(Root, "Unmarried")
	married := b.Add(Root, "Married")

	b.AddAll(unmarried, "Never-married", "Divorced", "Separated", "Widowed")
	b.AddAll(married, "Married-civ-spouse", "Married-spouse-absent",
		"Married-AF-spouse")
	return b.MustBuild()
}

func occupationTree() *Tree {
	b := NewBuilder("Occupation")
	whiteCollar := b.Add(Root, "White-Collar")
	blueCollar := b.Add(Root, "Blue-Collar")
	service := b.Add(Root, "Service")
	other := b.Add(Root, "Other")

	b.AddAll(whiteCollar, "Adm-clerical", "Exec-managerial", "Prof-specialty",
		"Sales", "Tech-support")
	b.AddAll(blueCollar, "Craft-repair", "Machine-op-inspct",
		"Handlers-cleaners", "Transport-moving", "Farming-fishing")
	b.AddAll(service, "Other-service", "Priv-house-serv", "Protective-serv")
	b.AddAll(other, "Armed-Forces", "Baby")
	return b.MustBuild()
}
