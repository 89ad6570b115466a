package model

// Stat is one dashboard metric card.
type Stat struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Color string `json:"color"`
}
