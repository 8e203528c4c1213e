package hotel

// Services groups every resource collection behind one request client.
type Services struct {
	Clients   *Collection[Client, Client, ClientInput]
	Rooms     *Collection[Room, RawRoom, RoomInput]
	RoomTypes *Collection[RoomType, RoomType, RoomTypeInput]
	Statuses  *Collection[RoomStatus, RoomStatus, RoomStatusInput]
	Bookings  *Collection[Booking, RawBooking, BookingInput]
	Admins    *Collection[Admin, Admin, AdminInput]
}

// Entry names a collection for the CLI and the dashboard.
type Entry struct {
	// Command is the CLI command name.
	Command string
	// Screen is the dashboard route.
	Screen  string
	Summary string
	browser func(*Services) Browser
}

// Browser returns the entry's collection within services.
func (entry Entry) Browser(services *Services) Browser {
	return entry.browser(services)
}

// NewServices binds every collection to api.
func NewServices(api API) *Services {
	clients := newCollection[Client, Client, ClientInput](api, "clients", "clients", "client")
	clients.shapeListed = func(client *Client) {
		for index := range client.Bookings {
			client.Bookings[index].StartDate = formatListingDate(client.Bookings[index].StartDate)
			client.Bookings[index].EndDate = formatListingDate(client.Bookings[index].EndDate)
		}
	}
	clients.shapeRecord = func(client *Client) {
		client.Birthdate = formatRecordDate(client.Birthdate)
	}

	bookings := newCollection[Booking, RawBooking, BookingInput](api, "bookings", "bookings", "booking")
	bookings.shapeListed = func(booking *Booking) {
		booking.StartDate = formatListingDate(booking.StartDate)
		booking.EndDate = formatListingDate(booking.EndDate)
	}
	bookings.shapeRecord = func(booking *RawBooking) {
		booking.StartDate = formatRecordDate(booking.StartDate)
		booking.EndDate = formatRecordDate(booking.EndDate)
	}

	return &Services{
		Clients:   clients,
		Rooms:     newCollection[Room, RawRoom, RoomInput](api, "rooms", "rooms", "room"),
		RoomTypes: newCollection[RoomType, RoomType, RoomTypeInput](api, "room-types", "roomTypes", "roomType"),
		Statuses:  newCollection[RoomStatus, RoomStatus, RoomStatusInput](api, "room-status", "roomStatus", "roomStatus"),
		Bookings:  bookings,
		Admins:    newCollection[Admin, Admin, AdminInput](api, "admins", "admins", "admin"),
	}
}

// Catalog lists the collections in menu order.
func Catalog() []Entry {
	return []Entry{
		{Command: "clients", Screen: "/clientes", Summary: "Hotel guests", browser: func(services *Services) Browser { return services.Clients }},
		{Command: "rooms", Screen: "/quartos", Summary: "Rooms", browser: func(services *Services) Browser { return services.Rooms }},
		{Command: "room-types", Screen: "/tipos-de-quartos", Summary: "Room types and prices", browser: func(services *Services) Browser { return services.RoomTypes }},
		{Command: "statuses", Screen: "/status", Summary: "Room statuses", browser: func(services *Services) Browser { return services.Statuses }},
		{Command: "bookings", Screen: "/reservas", Summary: "Bookings", browser: func(services *Services) Browser { return services.Bookings }},
		{Command: "admins", Screen: "/administradores", Summary: "Dashboard administrators", browser: func(services *Services) Browser { return services.Admins }},
	}
}
