package model

// Operator is the authenticated caller of the control surface.
type Operator struct {
	Name string `json:"name"`
}
