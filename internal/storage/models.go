package storage

import "time"

// Server represents a Rocket.Chat server the user has added
type Server struct {
	ID              int64      `db:"id" json:"id"`
	URL             string     `db:"url" json:"url"`
	Title           string     `db:"title" json:"title"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	LastActivatedAt *time.Time `db:"last_activated_at" json:"last_activated_at"` // Last time a link or the user opened it
}

// TrustedCertificate is a certificate the user accepted for a host
// despite it failing system verification
type TrustedCertificate struct {
	ID          int64     `db:"id" json:"id"`
	Host        string    `db:"host" json:"host"`
	Fingerprint string    `db:"fingerprint" json:"fingerprint"` // SHA-256 of the leaf, lowercase hex
	Subject     string    `db:"subject" json:"subject"`
	Issuer      string    `db:"issuer" json:"issuer"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
