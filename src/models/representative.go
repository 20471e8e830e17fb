package models

type Representative struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	District string `db:"district" json:"district"`
	State    string `db:"state" json:"state"`
	Party    string `db:"party" json:"party"`
}
