package construct

// seedConstructs is the dyscalculia screening taxonomy.
var seedConstructs = []Construct{
	{
		ID:          "number-sense",
		Name:        "Number Sense",
		Description: "Intuitive grasp of quantity, magnitude comparison and subitizing small sets",
		Examples:    []string{"Which is bigger, 7 or 4?", "How many dots without counting?"},
	},
	{
		ID:          "place-value",
		Name:        "Place Value",
		Description: "Understanding that a digit's value depends on its position",
		Examples:    []string{"What does the 3 in 305 stand for?", "Write forty-seven in digits"},
	},
	{
		ID:          "arithmetic-facts",
		Name:        "Arithmetic Facts",
		Description: "Fluent retrieval of basic addition, subtraction and multiplication facts",
		Examples:    []string{"6 + 7", "9 x 3"},
	},
	{
		ID:          "working-memory",
		Name:        "Working Memory",
		Description: "Holding intermediate values while completing multi-step calculations",
		Examples:    []string{"Add 8, then 5, then take away 3", "Repeat 4-9-2 backwards"},
	},
	{
		ID:          "spatial-reasoning",
		Name:        "Spatial Reasoning",
		Description: "Number line placement, shapes and mental rotation",
		Examples:    []string{"Where does 50 go on a 0 to 100 line?", "Which shape is the rotated square?"},
	},
	{
		ID:          "math-vocabulary",
		Name:        "Math Vocabulary",
		Description: "Mapping words such as more, fewer, sum and difference to operations",
		Examples:    []string{"What is the difference between 9 and 4?", "Which group has fewer?"},
	},
	{
		ID:          "sequencing",
		Name:        "Sequencing & Patterns",
		Description: "Counting on and back, skip counting and continuing number patterns",
		Examples:    []string{"What comes after 2, 4, 6?", "Count back from 20 by 5s"},
	},
	{
		ID:          "estimation",
		Name:        "Estimation",
		Description: "Judging approximate size of quantities and answers",
		Examples:    []string{"Is 48 + 39 closer to 80 or 100?", "About how many marbles are in the jar?"},
	},
	{
		ID:          "time-money",
		Name:        "Time & Money",
		Description: "Reading clocks, elapsed time, coin values and making change",
		Examples:    []string{"What time is 20 minutes after 3:50?", "Change from $1 for a 65 cent apple"},
	},
	{
		ID:          "fractions",
		Name:        "Fractions",
		Description: "Part-whole relationships and comparing simple fractions",
		Examples:    []string{"Which is bigger, 1/3 or 1/4?", "Shade half of the shape"},
	},
}
