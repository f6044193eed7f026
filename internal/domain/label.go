package domain

import (
	"regexp"
	"time"
)

// DefaultColor is used when a label is created without an explicit color.
const DefaultColor = "#000000"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Label struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidColor reports whether s is a 6-hex-digit color like "#1A2B3C".
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}
