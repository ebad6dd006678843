package entities

// Concorso is a public-sector job announcement. The record is owned by an
// external ingestion pipeline; this service only reads it.
type Concorso struct {
	ID              string `gorm:"primaryKey"`
	Titolo          string
	TitoloBreve     string
	Ente            string
	DataChiusura    string // raw closing date, multiple source encodings
	PublicationDate string
}

// Title prefers the short editorial title when one is present.
func (c Concorso) Title() string {
	if c.TitoloBreve != "" {
		return c.TitoloBreve
	}
	return c.Titolo
}
