package entity

import "fmt"

// Address is an immutable postal address. Two addresses are equal when all fields are.
type Address struct {
	street  string
	city    string
	state   string
	zipCode string
	country string
}

func NewAddress(street, city, state, zipCode, country string) Address {
	return Address{street: street, city: city, state: state, zipCode: zipCode, country: country}
}

func (a Address) Street() string  { return a.street }
func (a Address) City() string    { return a.city }
func (a Address) State() string   { return a.state }
func (a Address) ZipCode() string { return a.zipCode }
func (a Address) Country() string { return a.country }

// IsZero reports whether every field is blank.
func (a Address) IsZero() bool {
	return a == Address{}
}

// FullAddress formats the address as "street, city, state zip, country".
func (a Address) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s, %s", a.street, a.city, a.state, a.zipCode, a.country)
}
