package vn

import "fmt"

// Link connects an output variable to an input variable.
type Link struct {
	Source Name `json:"source"`
	Target Name `json:"target"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s->%s", l.Source, l.Target)
}
