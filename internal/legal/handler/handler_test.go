package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"conveyo/internal/escrow"
	"conveyo/internal/legal"
	"conveyo/internal/legal/handler/mocks"
	legalservice "conveyo/internal/legal/service"
	id "conveyo/pkg/domain"
	dErrors "conveyo/pkg/domain-errors"
	"conveyo/pkg/platform/sentinel"
	"conveyo/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type LegalHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *LegalHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestLegalHandlerSuite(t *testing.T) {
	suite.Run(t, new(LegalHandlerSuite))
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger, nil)
	r := chi.NewRouter()
	handler.Register(r)
	return handler, mockService
}

func routeRequest(req *http.Request, reservationID id.ReservationID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("reservationID", reservationID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func (s *LegalHandlerSuite) TestHandleInitiateBooking() {
	handler, mockService := newTestHandler(s.T())
	unitID := id.NewUnitID()
	buyerID := id.NewBuyerID()
	reservationID := id.NewReservationID()
	mockService.EXPECT().
		InitiateBooking(gomock.Any(), unitID, buyerID).
		Return(&legal.LegalReservation{
			ID:      reservationID,
			UnitID:  unitID,
			BuyerID: buyerID,
			Status:  legal.StatusBookingInitiated,
		}, nil)

	body, err := json.Marshal(map[string]string{"unitId": unitID.String(), "buyerId": buyerID.String()})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	handler.handleInitiateBooking(w, httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), reservationID.String(), resp["id"])
	assert.Equal(s.T(), string(legal.StatusBookingInitiated), resp["status"])
}

func (s *LegalHandlerSuite) TestHandleInitiateBooking_MalformedBody() {
	handler, _ := newTestHandler(s.T())

	w := httptest.NewRecorder()
	handler.handleInitiateBooking(w, httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader([]byte("{not json"))))

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *LegalHandlerSuite) TestHandleGet_NotFound() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	mockService.EXPECT().
		Get(gomock.Any(), reservationID).
		Return(nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "reservation not found"))

	req := routeRequest(httptest.NewRequest(http.MethodGet, "/reservations/"+reservationID.String(), nil), reservationID)
	w := httptest.NewRecorder()
	handler.handleGet(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeNotFound), resp["error"])
}

func (s *LegalHandlerSuite) TestHandleNominateSolicitor_ComplianceUnmet() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	input := legalservice.SolicitorInput{
		FirmName:           "Murphy & Co",
		SolicitorName:      "A. Murphy",
		Email:              "murphy@example.ie",
		RegistrationNumber: "IE12345",
	}
	mockService.EXPECT().
		NominateSolicitor(gomock.Any(), reservationID, input).
		Return(nil, dErrors.NewComplianceUnmet([]string{"kyc_verification", "data_processing_consent"}))

	body, err := json.Marshal(input)
	require.NoError(s.T(), err)
	req := routeRequest(httptest.NewRequest(http.MethodPost, "/reservations/"+reservationID.String()+"/solicitor", bytes.NewReader(body)), reservationID)

	w := httptest.NewRecorder()
	handler.handleNominateSolicitor(w, req)

	assert.Equal(s.T(), http.StatusUnprocessableEntity, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeComplianceUnmet), resp["error"])
	conditions := resp["conditions"].([]any)
	assert.Len(s.T(), conditions, 2)
	assert.Equal(s.T(), "kyc_verification", conditions[0])
}

func (s *LegalHandlerSuite) TestHandleGenerateContract_InvalidTransition() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	mockService.EXPECT().
		GenerateContract(gomock.Any(), reservationID, "doc-123").
		Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot transition from BOOKING_INITIATED to CONTRACT_GENERATED"))

	body, err := json.Marshal(map[string]string{"documentRef": "doc-123"})
	require.NoError(s.T(), err)
	req := routeRequest(httptest.NewRequest(http.MethodPost, "/reservations/"+reservationID.String()+"/contract", bytes.NewReader(body)), reservationID)

	w := httptest.NewRecorder()
	handler.handleGenerateContract(w, req)

	assert.Equal(s.T(), http.StatusConflict, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(dErrors.CodeInvalidTransition), resp["error"])
}

func (s *LegalHandlerSuite) TestHandlePaymentCaptured() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	amount := decimal.NewFromInt(5000)
	mockService.EXPECT().
		DepositCaptured(gomock.Any(), reservationID, amount, escrow.MethodBankTransfer, "txn-789").
		Return(&legal.LegalReservation{ID: reservationID, Status: legal.StatusDepositPaid}, nil)

	body, err := json.Marshal(map[string]any{
		"reservationId": reservationID.String(),
		"amount":        amount,
		"method":        string(escrow.MethodBankTransfer),
		"reference":     "txn-789",
	})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	handler.handlePaymentCaptured(w, httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(legal.StatusDepositPaid), resp["status"])
}

func (s *LegalHandlerSuite) TestHandleSignatureUpdate() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	signerID := id.NewSignerID()
	mockService.EXPECT().
		OnSignatureUpdate(gomock.Any(), reservationID, "env-1", signerID, legal.SignatureCompleted).
		Return(&legal.LegalReservation{ID: reservationID, Status: legal.StatusLegallyBound}, nil)

	body, err := json.Marshal(map[string]string{
		"reservationId": reservationID.String(),
		"envelopeId":    "env-1",
		"signerId":      signerID.String(),
		"status":        string(legal.SignatureCompleted),
	})
	require.NoError(s.T(), err)

	w := httptest.NewRecorder()
	handler.handleSignatureUpdate(w, httptest.NewRequest(http.MethodPost, "/webhooks/signatures", bytes.NewReader(body)))

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), string(legal.StatusLegallyBound), resp["status"])
}

func (s *LegalHandlerSuite) TestHandleCancel_UsesAuthenticatedSubject() {
	handler, mockService := newTestHandler(s.T())
	reservationID := id.NewReservationID()
	mockService.EXPECT().
		Cancel(gomock.Any(), reservationID, "agent-42", "buyer withdrew").
		Return(&legal.LegalReservation{ID: reservationID, Status: legal.StatusCancelled}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/reservations/"+reservationID.String()+"/cancel", map[string]string{"reason": "buyer withdrew"})
	req = routeRequest(testutil.WithSubject(req, "agent-42"), reservationID)

	w := httptest.NewRecorder()
	handler.handleCancel(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *LegalHandlerSuite) TestHandleGet_BadReservationID() {
	handler, _ := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodGet, "/reservations/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("reservationID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.handleGet(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}
