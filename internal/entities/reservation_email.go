package entities

type ReservationEmailData struct {
	RestaurantName  string
	GuestName       string
	ReservationCode string
	PartySize       int
	Date            string
	Time            string
	Phone           string
	SpecialRequests string
	Status          string
	CurrentYear     int
}
