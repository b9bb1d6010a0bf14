package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/pkg/validator"
)

const maxInvoiceNumber = 64

func (s *service) RequestInvoice(ctx context.Context, userID string, req InvoiceRequest) (*InvoiceResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if req.PurchaseType == "" {
		req.PurchaseType = PurchaseSubscription
	}
	if err := validateInvoiceRequest(req); err != nil {
		return nil, err
	}

	amount, ok := s.catalog.InvoiceAmount(req.PlanType)
	if !ok {
		return nil, ErrUnknownPlan
	}

	now := s.now()
	sub := Subscription{
		UserID:        userID,
		PlanType:      req.PlanType,
		PurchaseType:  req.PurchaseType,
		Status:        StatusPending,
		PaymentMethod: MethodInvoice,
		StartDate:     now,
	}
	payment := Payment{
		Amount:        amount,
		Currency:      s.catalog.Currency(),
		PaymentMethod: MethodInvoice,
		Status:        PaymentPending,
		Billing:       req.BillingDetails,
	}
	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.InsertSubscription(ctx, &sub); err != nil {
			return errors.Join(ErrFailedToCreateSubscription, err)
		}
		payment.SubscriptionID = sub.ID
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return errors.Join(ErrFailedToRecordPayment, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.log.With(logger.UserID(userID), logger.SubscriptionID(sub.ID.String()), logger.PaymentID(payment.ID.String()))
	log.InfoContext(ctx, "invoice requested", logger.PlanType(string(sub.PlanType)))
	s.metrics.invoice(PaymentPending)

	if err := s.notifier.InvoiceRequested(ctx, sub, payment); err != nil {
		log.WarnContext(ctx, "failed to notify about invoice request", logger.Error(err))
	}
	return &InvoiceResult{Subscription: sub, Payment: payment}, nil
}

func validateInvoiceRequest(req InvoiceRequest) error {
	b := req.BillingDetails
	return validator.Apply(
		validator.Required("planType", string(req.PlanType)),
		validator.When(req.PlanType != "", validator.OneOf("planType", req.PlanType, PlanTypes...)),
		validator.OneOf("purchaseType", req.PurchaseType, PurchaseSubscription, PurchaseOneTime),
		validator.Required("billingDetails.schoolName", b.SchoolName),
		validator.Required("billingDetails.contactName", b.ContactName),
		validator.Required("billingDetails.contactEmail", b.ContactEmail),
		validator.When(b.ContactEmail != "", validator.Email("billingDetails.contactEmail", b.ContactEmail)),
		validator.MaxLen("billingDetails.schoolName", b.SchoolName, maxMetadataValue),
		validator.MaxLen("billingDetails.address", b.Address, maxMetadataValue),
		validator.MaxLen("billingDetails.contactName", b.ContactName, maxMetadataValue),
	)
}

// UpdateInvoiceStatus checks the caller's role before touching any row.
func (s *service) UpdateInvoiceStatus(ctx context.Context, callerID string, req InvoiceStatusUpdate) (*Payment, error) {
	if callerID == "" {
		return nil, ErrMissingUserID
	}
	isAdmin, err := s.roles.IsAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		s.log.WarnContext(ctx, "non-admin attempted invoice status update", logger.UserID(callerID))
		return nil, ErrForbidden
	}
	if req.AdminUserID != "" && req.AdminUserID != callerID {
		s.log.WarnContext(ctx, "invoice update names a different admin", logger.UserID(callerID))
		return nil, ErrForbidden
	}

	paymentID, err := validateInvoiceUpdate(req)
	if err != nil {
		return nil, err
	}

	var updated *Payment
	err = s.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.UpdatePaymentStatus(ctx, paymentID, req.Status, req.InvoiceNumber)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Join(ErrFailedToUpdatePayment, err)
		}
		updated = p

		if req.Status != PaymentCompleted {
			return nil
		}
		// Manual grants are always dated, whatever the purchase type.
		now := s.now()
		if _, err := tx.ForceActivate(ctx, p.SubscriptionID, Activation{At: now, End: s.grantEnd(now)}); err != nil {
			return errors.Join(ErrFailedToUpdateSubscription, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "invoice status updated",
		logger.UserID(callerID),
		logger.PaymentID(updated.ID.String()),
		logger.SubscriptionID(updated.SubscriptionID.String()),
		"status", string(updated.Status))
	s.metrics.invoice(updated.Status)
	return updated, nil
}

func validateInvoiceUpdate(req InvoiceStatusUpdate) (uuid.UUID, error) {
	id, parseErr := uuid.Parse(req.PaymentID)
	invoiceNumber := ""
	if req.InvoiceNumber != nil {
		invoiceNumber = *req.InvoiceNumber
	}
	err := validator.Apply(
		validator.Required("paymentId", req.PaymentID),
		validator.When(req.PaymentID != "", validator.Rule{
			Check: func() bool { return parseErr == nil },
			Error: validator.FieldError{Field: "paymentId", Message: "must be a valid id"},
		}),
		validator.Required("status", string(req.Status)),
		validator.When(req.Status != "", validator.OneOf("status", req.Status, PaymentPending, PaymentCompleted, PaymentCancelled)),
		validator.MaxLen("invoiceNumber", invoiceNumber, maxInvoiceNumber),
	)
	return id, err
}
