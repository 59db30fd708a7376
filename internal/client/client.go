// Package client stores the purchasing accounts that own carts and orders.
package client

// Client is a purchasing company. Its contact fields are editable from the
// checkout form.
type Client struct {
	ID int `json:"clientId"`
	Contact
}

// Contact is the editable part of a client.
type Contact struct {
	CompanyName string `json:"companyName"`
	TaxID       string `json:"taxId"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// Merge returns c with every non-blank field of in applied, and whether
// anything changed.
func (c Contact) Merge(in Contact) (Contact, bool) {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&c.CompanyName, in.CompanyName)
	set(&c.TaxID, in.TaxID)
	set(&c.Address, in.Address)
	set(&c.Phone, in.Phone)
	set(&c.Email, in.Email)
	return c, changed
}
