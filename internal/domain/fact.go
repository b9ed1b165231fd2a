package domain

// Facts is the flat, named value set rule conditions are evaluated against.
// Values are strings, numbers or booleans assembled from the declared
// category, extracted fields and enriched personnel data.
type Facts map[string]any
