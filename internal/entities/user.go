package entities

// UserProfile holds the subset of the user document this service needs to
// address a digest email.
type UserProfile struct {
	ID        string `gorm:"primaryKey"`
	Email     string
	FirstName string
}
