package hotel

// ClientBooking is a booking summary embedded in a client record.
type ClientBooking struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Client is a hotel guest.
type Client struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name,omitempty"`
	CPF          string          `json:"cpf,omitempty"`
	Email        string          `json:"email,omitempty"`
	Address      string          `json:"address,omitempty"`
	Birthdate    string          `json:"birthdate,omitempty"`
	WifiPassword string          `json:"wifi_password,omitempty"`
	Bookings     []ClientBooking `json:"bookings,omitempty"`
}

// ClientInput is the body of client create and update calls. ID is required for updates.
type ClientInput struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	CPF          string `json:"cpf"`
	Email        string `json:"email"`
	Address      string `json:"address,omitempty"`
	Birthdate    string `json:"birthdate,omitempty"`
	WifiPassword string `json:"wifi_password,omitempty"`
}

// RoomType is a room category with its nightly price.
type RoomType struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name,omitempty"`
	DailyPrice float64 `json:"daily_price,omitempty"`
}

// RoomTypeInput is the body of room type create and update calls.
type RoomTypeInput struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name,omitempty"`
	DailyPrice float64 `json:"daily_price,omitempty"`
}

// Room is a room as listed, with its type and status resolved to names.
type Room struct {
	ID         string  `json:"id"`
	Number     string  `json:"number"`
	RoomType   string  `json:"room_type"`
	Status     string  `json:"status"`
	DailyPrice float64 `json:"daily_price"`
}

// RawRoom is a single room record with references by id.
type RawRoom struct {
	ID           string `json:"id,omitempty"`
	Number       string `json:"number,omitempty"`
	RoomTypeID   string `json:"room_type_id,omitempty"`
	RoomStatusID string `json:"room_status_id,omitempty"`
}

// RoomInput is the body of room create and update calls.
type RoomInput struct {
	ID           string `json:"id,omitempty"`
	Number       string `json:"number"`
	RoomTypeID   string `json:"room_type_id"`
	RoomStatusID string `json:"room_status_id,omitempty"`
}

// RoomStatus is a housekeeping state a room can be in.
type RoomStatus struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// RoomStatusInput is the body of room status create and update calls.
type RoomStatusInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Booking is a booking as listed, with client and room details resolved.
type Booking struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientCPF   string `json:"client_cpf"`
	RoomNumber  string `json:"room_number"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// RawBooking is a single booking record with references by id.
type RawBooking struct {
	ID        string `json:"id,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// BookingInput is the body of booking create and update calls.
type BookingInput struct {
	ID        string `json:"id,omitempty"`
	ClientID  string `json:"client_id"`
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Admin is a dashboard operator account.
type Admin struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// AdminInput is the body of admin create and update calls.
type AdminInput struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}
