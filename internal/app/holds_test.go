package app

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/mailer"
	"github.com/metinatakli/cinema-booking/internal/mocks"
	"github.com/metinatakli/cinema-booking/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HoldsTestSuite struct {
	suite.Suite
	app     *Application
	deps    *testDeps
	handler http.Handler
}

func (s *HoldsTestSuite) SetupTest() {
	s.app, s.deps = newTestApplication()
	s.handler = s.app.Routes()
}

func TestHoldsSuite(t *testing.T) {
	suite.Run(t, new(HoldsTestSuite))
}

func (s *HoldsTestSuite) placeHold(g *guest, screeningID int, input api.PlaceHoldRequest) api.Hold {
	w := g.do(http.MethodPost, fmt.Sprintf("/screenings/%d/holds", screeningID), input)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	return decodeJSON[api.HoldResponse](s.T(), w).Hold
}

func (s *HoldsTestSuite) payHold(g *guest, holdID string, outcome domain.PaymentOutcome) string {
	w := g.do(http.MethodPost, "/holds/"+holdID+"/payment-intent", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	intent := decodeJSON[api.PaymentIntentResponse](s.T(), w)
	s.Require().NoError(s.deps.payments.SetOutcome(intent.PaymentIntentId, outcome))

	return intent.PaymentIntentId
}

func (s *HoldsTestSuite) seatStatus(screeningID int, seatID string) domain.SeatStatus {
	state, err := s.app.manager.Store().SeatState(screeningID, domain.SeatID(seatID))
	s.Require().NoError(err)

	return state.Status
}

func (s *HoldsTestSuite) TestPlaceHold() {
	tests := []struct {
		name           string
		screeningID    int
		input          any
		wantStatus     int
		wantErrMessage string
		wantAmount     string
	}{
		{
			name:        "should hold standard and vip seats",
			screeningID: 1,
			input:       api.PlaceHoldRequest{Seats: []string{"A1", "G1"}},
			wantStatus:  http.StatusCreated,
			wantAmount:  "25",
		},
		{
			name:        "should apply prime time pricing",
			screeningID: 2,
			input:       api.PlaceHoldRequest{Seats: []string{"A1", "A2"}},
			wantStatus:  http.StatusCreated,
			wantAmount:  "30",
		},
		{
			name:           "should fail when seat list is empty",
			screeningID:    1,
			input:          api.PlaceHoldRequest{Seats: []string{}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: fmt.Sprintf(validator.ErrMinItems, "1"),
		},
		{
			name:           "should fail when a seat label is malformed",
			screeningID:    1,
			input:          api.PlaceHoldRequest{Seats: []string{"A1", "a2"}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrSeatLabel,
		},
		{
			name:           "should fail when a seat is listed twice",
			screeningID:    1,
			input:          api.PlaceHoldRequest{Seats: []string{"A1", "A1"}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrUniqueItems,
		},
		{
			name:           "should fail when ttl is not positive",
			screeningID:    1,
			input:          api.PlaceHoldRequest{Seats: []string{"A1"}, TtlSeconds: ptr(0)},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: fmt.Sprintf(validator.ErrMinValue, "1"),
		},
		{
			name:           "should fail when email is invalid",
			screeningID:    1,
			input:          api.PlaceHoldRequest{Seats: []string{"A1"}, Email: ptr("not-an-email")},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: validator.ErrEmail,
		},
		{
			name:           "should fail when body has unknown fields",
			screeningID:    1,
			input:          map[string]any{"seats": []string{"A1"}, "holder": "me"},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: `body contains unknown key "holder"`,
		},
		{
			name:        "should fail when seat does not exist in the layout",
			screeningID: 1,
			input:       api.PlaceHoldRequest{Seats: []string{"Z99"}},
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:           "should fail when screening does not exist",
			screeningID:    99,
			input:          api.PlaceHoldRequest{Seats: []string{"A1"}},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: domain.ErrScreeningNotFound.Error(),
		},
		{
			name:        "should fail when screening id is below minimum",
			screeningID: 0,
			input:       api.PlaceHoldRequest{Seats: []string{"A1"}},
			wantStatus:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			g := newGuest(s.T(), s.handler)
			w := g.do(http.MethodPost, fmt.Sprintf("/screenings/%d/holds", tt.screeningID), tt.input)

			s.Equal(tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusCreated {
				hold := decodeJSON[api.HoldResponse](s.T(), w).Hold
				s.True(decimal.RequireFromString(tt.wantAmount).Equal(hold.Amount), "amount = %s", hold.Amount)
				s.Equal("usd", hold.Currency)
				s.True(s.deps.clock.Now().Add(10*time.Minute).Equal(hold.ExpiresAt), "expires at %s", hold.ExpiresAt)

				for _, seat := range hold.Seats {
					s.Equal(domain.SeatHeld, s.seatStatus(tt.screeningID, seat))
				}
				return
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{tt.wantStatus, tt.wantErrMessage})
		})
	}
}

func (s *HoldsTestSuite) TestPlaceHold_Conflict() {
	alice := newGuest(s.T(), s.handler)
	bob := newGuest(s.T(), s.handler)

	s.placeHold(alice, 1, api.PlaceHoldRequest{Seats: []string{"A1", "A2"}})

	w := bob.do(http.MethodPost, "/screenings/1/holds", api.PlaceHoldRequest{Seats: []string{"A2", "A3"}})
	s.Require().Equal(http.StatusConflict, w.Code)

	resp := decodeJSON[api.ErrorResponse](s.T(), w)
	s.Equal([]string{"A2"}, resp.UnavailableSeats)
	s.NotEmpty(resp.RequestId)

	// All or nothing: A3 was not held by the failed request.
	s.Equal(domain.SeatAvailable, s.seatStatus(1, "A3"))
}

func (s *HoldsTestSuite) TestPlaceHold_ExpiredHoldFreesSeats() {
	alice := newGuest(s.T(), s.handler)
	bob := newGuest(s.T(), s.handler)

	s.placeHold(alice, 1, api.PlaceHoldRequest{Seats: []string{"B1"}, TtlSeconds: ptr(5)})

	s.deps.clock.Advance(6 * time.Second)

	s.placeHold(bob, 1, api.PlaceHoldRequest{Seats: []string{"B1"}})
}

func (s *HoldsTestSuite) TestGetHold() {
	alice := newGuest(s.T(), s.handler)
	bob := newGuest(s.T(), s.handler)

	hold := s.placeHold(alice, 1, api.PlaceHoldRequest{Seats: []string{"C1"}})

	w := alice.do(http.MethodGet, "/holds/"+hold.Id.String(), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(hold.Id, decodeJSON[api.HoldResponse](s.T(), w).Hold.Id)

	w = bob.do(http.MethodGet, "/holds/"+hold.Id.String(), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = alice.do(http.MethodGet, "/holds/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	s.deps.clock.Advance(11 * time.Minute)

	w = alice.do(http.MethodGet, "/holds/"+hold.Id.String(), nil)
	s.Equal(http.StatusGone, w.Code)
}

func (s *HoldsTestSuite) TestReleaseHold() {
	alice := newGuest(s.T(), s.handler)
	bob := newGuest(s.T(), s.handler)

	hold := s.placeHold(alice, 1, api.PlaceHoldRequest{Seats: []string{"D1", "D2"}})

	w := bob.do(http.MethodDelete, "/holds/"+hold.Id.String(), nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal(domain.SeatHeld, s.seatStatus(1, "D1"), "a foreign session must not release the hold")

	w = alice.do(http.MethodDelete, "/holds/"+hold.Id.String(), nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal(domain.SeatAvailable, s.seatStatus(1, "D1"))
	s.Equal(domain.SeatAvailable, s.seatStatus(1, "D2"))

	w = alice.do(http.MethodDelete, "/holds/"+hold.Id.String(), nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HoldsTestSuite) TestConfirmHold() {
	tests := []struct {
		name           string
		outcome        domain.PaymentOutcome
		before         func()
		wantStatus     int
		wantErrMessage string
		wantBooking    api.BookingStatus
		wantSeatStatus domain.SeatStatus
	}{
		{
			name:           "should book the seats when payment succeeded",
			outcome:        domain.PaymentSucceeded,
			wantStatus:     http.StatusCreated,
			wantBooking:    api.Confirmed,
			wantSeatStatus: domain.SeatBooked,
		},
		{
			name:           "should keep a pending booking while payment is processing",
			outcome:        domain.PaymentProcessing,
			wantStatus:     http.StatusCreated,
			wantBooking:    api.Pending,
			wantSeatStatus: domain.SeatBooked,
		},
		{
			name:           "should release the seats when payment was declined",
			outcome:        domain.PaymentDeclined,
			wantStatus:     http.StatusPaymentRequired,
			wantErrMessage: domain.ErrPaymentDeclined.Error(),
			wantSeatStatus: domain.SeatAvailable,
		},
		{
			name:           "should keep the hold when payment is incomplete",
			outcome:        domain.PaymentIncomplete,
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrPaymentIncomplete.Error(),
			wantSeatStatus: domain.SeatHeld,
		},
		{
			name:    "should keep the hold when the gateway is unavailable",
			outcome: domain.PaymentSucceeded,
			before: func() {
				s.deps.payments.SetUnavailable(true)
			},
			wantStatus:     http.StatusServiceUnavailable,
			wantErrMessage: domain.ErrGatewayUnavailable.Error(),
			wantSeatStatus: domain.SeatHeld,
		},
		{
			name:    "should fail when the hold has expired",
			outcome: domain.PaymentSucceeded,
			before: func() {
				s.deps.clock.Advance(10 * time.Minute)
			},
			wantStatus:     http.StatusGone,
			wantErrMessage: domain.ErrHoldExpired.Error(),
			wantSeatStatus: domain.SeatAvailable,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			g := newGuest(s.T(), s.handler)
			hold := s.placeHold(g, 1, api.PlaceHoldRequest{Seats: []string{"E1", "E2"}})
			ref := s.payHold(g, hold.Id.String(), tt.outcome)

			if tt.before != nil {
				tt.before()
			}

			w := g.do(http.MethodPost, "/holds/"+hold.Id.String()+"/confirm", api.ConfirmHoldRequest{PaymentRef: ref})
			s.Require().Equal(tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusCreated {
				booking := decodeJSON[api.BookingResponse](s.T(), w).Booking
				s.Equal(tt.wantBooking, booking.Status)
				s.Equal([]string{"E1", "E2"}, booking.Seats)
				s.True(decimal.NewFromInt(20).Equal(booking.TotalPrice))
				s.Equal(ref, *booking.PaymentRef)
			} else {
				checkErrorResponse(s.T(), w, struct {
					wantStatus     int
					wantErrMessage string
				}{tt.wantStatus, tt.wantErrMessage})
			}

			s.Equal(tt.wantSeatStatus, s.seatStatus(1, "E1"))
			s.Equal(tt.wantSeatStatus, s.seatStatus(1, "E2"))
		})
	}
}

func (s *HoldsTestSuite) TestConfirmHold_Validation() {
	g := newGuest(s.T(), s.handler)
	hold := s.placeHold(g, 1, api.PlaceHoldRequest{Seats: []string{"F1"}})

	w := g.do(http.MethodPost, "/holds/"+hold.Id.String()+"/confirm", api.ConfirmHoldRequest{})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	checkErrorResponse(s.T(), w, struct {
		wantStatus     int
		wantErrMessage string
	}{http.StatusUnprocessableEntity, validator.ErrRequired})

	other := newGuest(s.T(), s.handler)
	w = other.do(http.MethodPost, "/holds/"+hold.Id.String()+"/confirm", api.ConfirmHoldRequest{PaymentRef: "pi_1"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HoldsTestSuite) TestConfirmHold_NotifiesContact() {
	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.BookingEvent")).Return(nil)

	mockMailer := mailer.NewMockMailer()

	s.app.publisher = publisher
	s.app.mailer = mockMailer

	g := newGuest(s.T(), s.handler)
	hold := s.placeHold(g, 1, api.PlaceHoldRequest{Seats: []string{"H1"}, Email: ptr("guest@example.com")})
	ref := s.payHold(g, hold.Id.String(), domain.PaymentSucceeded)

	w := g.do(http.MethodPost, "/holds/"+hold.Id.String()+"/confirm", api.ConfirmHoldRequest{PaymentRef: ref})
	s.Require().Equal(http.StatusCreated, w.Code)

	s.app.wg.Wait()

	publisher.AssertNumberOfCalls(s.T(), "Publish", 1)

	emails := mockMailer.SentTo("guest@example.com", "booking_confirmed.tmpl")
	s.Require().Len(emails, 1)

	data := emails[0].Data.(map[string]any)
	s.Equal("The Last Projection", data["MovieTitle"])
	s.Equal("Hall 1", data["Hall"])
	s.Equal([]string{"H1"}, data["Seats"])
	s.Equal("15.00", data["TotalPrice"])
}

func (s *HoldsTestSuite) TestScenario_ConfirmWithinAndPastTTL() {
	g := newGuest(s.T(), s.handler)

	hold := s.placeHold(g, 1, api.PlaceHoldRequest{Seats: []string{"A1", "A2"}, TtlSeconds: ptr(5)})
	ref := s.payHold(g, hold.Id.String(), domain.PaymentSucceeded)

	s.deps.clock.Advance(4 * time.Second)

	w := g.do(http.MethodPost, "/holds/"+hold.Id.String()+"/confirm", api.ConfirmHoldRequest{PaymentRef: ref})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal(api.Confirmed, decodeJSON[api.BookingResponse](s.T(), w).Booking.Status)

	late := s.placeHold(g, 1, api.PlaceHoldRequest{Seats: []string{"A3", "A4"}, TtlSeconds: ptr(5)})
	lateRef := s.payHold(g, late.Id.String(), domain.PaymentSucceeded)

	s.deps.clock.Advance(6 * time.Second)

	w = g.do(http.MethodPost, "/holds/"+late.Id.String()+"/confirm", api.ConfirmHoldRequest{PaymentRef: lateRef})
	s.Require().Equal(http.StatusGone, w.Code)
	s.Equal(domain.SeatAvailable, s.seatStatus(1, "A3"))
	s.Equal(domain.SeatAvailable, s.seatStatus(1, "A4"))
}
