package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type SeatType string

const (
	Standard SeatType = "standard"
	Vip      SeatType = "vip"
)

type SeatStatus string

const (
	Available SeatStatus = "available"
	Held      SeatStatus = "held"
	Booked    SeatStatus = "booked"
)

type BookingStatus string

const (
	Pending   BookingStatus = "pending"
	Confirmed BookingStatus = "confirmed"
	Cancelled BookingStatus = "cancelled"
)

type ErrorResponse struct {
	Message          string    `json:"message"`
	RequestId        string    `json:"requestId"`
	Timestamp        time.Time `json:"timestamp"`
	UnavailableSeats []string  `json:"unavailableSeats,omitempty"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Screening struct {
	Id         int             `json:"id"`
	MovieId    int             `json:"movieId"`
	MovieTitle string          `json:"movieTitle"`
	Hall       string          `json:"hall"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    time.Time       `json:"endTime"`
	BasePrice  decimal.Decimal `json:"basePrice"`
}

type ScreeningsResponse struct {
	Screenings []Screening `json:"screenings"`
}

type Seat struct {
	Id     string          `json:"id"`
	Row    string          `json:"row"`
	Number int             `json:"number"`
	Type   SeatType        `json:"type"`
	Status SeatStatus      `json:"status"`
	Price  decimal.Decimal `json:"price"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ScreeningId int       `json:"screeningId"`
	Hall        string    `json:"hall"`
	SeatRows    []SeatRow `json:"seatRows"`
}

type AvailableSeatsResponse struct {
	ScreeningId int    `json:"screeningId"`
	Seats       []Seat `json:"seats"`
}

type GetQuoteParams struct {
	Seats []string `json:"seats" validate:"required,min=1,max=10,unique,dive,seat"`
}

type QuoteResponse struct {
	ScreeningId int             `json:"screeningId"`
	Seats       []Seat          `json:"seats"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
}

type PlaceHoldRequest struct {
	Seats      []string `json:"seats" validate:"required,min=1,max=10,unique,dive,seat"`
	TtlSeconds *int     `json:"ttlSeconds,omitempty" validate:"omitnil,min=1"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
}

type Hold struct {
	Id              openapi_types.UUID `json:"id"`
	ScreeningId     int                `json:"screeningId"`
	Seats           []string           `json:"seats"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        string             `json:"currency"`
	ExpiresAt       time.Time          `json:"expiresAt"`
	PaymentIntentId *string            `json:"paymentIntentId,omitempty"`
}

type HoldResponse struct {
	Hold Hold `json:"hold"`
}

type PaymentIntentResponse struct {
	PaymentIntentId string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
}

type ConfirmHoldRequest struct {
	PaymentRef string `json:"paymentRef" validate:"required"`
}

type Booking struct {
	Id          openapi_types.UUID `json:"id"`
	ScreeningId int                `json:"screeningId"`
	Seats       []string           `json:"seats"`
	TotalPrice  decimal.Decimal    `json:"totalPrice"`
	Currency    string             `json:"currency"`
	Status      BookingStatus      `json:"status"`
	PaymentRef  *string            `json:"paymentRef,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type BookingResponse struct {
	Booking Booking `json:"booking"`
}

type GetBookingsParams struct {
	Page     *int `json:"page,omitempty" validate:"omitnil,min=1"`
	PageSize *int `json:"pageSize,omitempty" validate:"omitnil,min=1,max=100"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type BookingsResponse struct {
	Bookings []Booking `json:"bookings"`
	Metadata Metadata  `json:"metadata"`
}

type SeatCounts struct {
	Total         int `json:"total"`
	Booked        int `json:"booked"`
	Held          int `json:"held"`
	Available     int `json:"available"`
	OccupancyRate int `json:"occupancyRate"`
}

type OccupancyReport struct {
	ScreeningId int `json:"screeningId"`
	SeatCounts
	BySeatType map[string]SeatCounts `json:"bySeatType"`
}

type RevenueReport struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	ConfirmedRevenue   decimal.Decimal `json:"confirmedRevenue"`
	PendingRevenue     decimal.Decimal `json:"pendingRevenue"`
	TotalBookings      int             `json:"totalBookings"`
	ConfirmedBookings  int             `json:"confirmedBookings"`
	CancelledBookings  int             `json:"cancelledBookings"`
	SeatsSold          int             `json:"seatsSold"`
	AverageTicketPrice decimal.Decimal `json:"averageTicketPrice"`
}

type GetPopularMoviesParams struct {
	Limit *int `json:"limit,omitempty" validate:"omitnil,min=1,max=50"`
}

type PopularMovie struct {
	MovieId  int             `json:"movieId"`
	Title    string          `json:"title"`
	Bookings int             `json:"bookings"`
	Seats    int             `json:"seats"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type PopularMoviesResponse struct {
	Movies []PopularMovie `json:"movies"`
}

type DashboardResponse struct {
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalBookings   int             `json:"totalBookings"`
	TotalScreenings int             `json:"totalScreenings"`
	OccupancyRate   int             `json:"occupancyRate"`
	PopularMovies   []PopularMovie  `json:"popularMovies"`
	RecentBookings  []Booking       `json:"recentBookings"`
}
