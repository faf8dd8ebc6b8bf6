package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

type PayerFields struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
	Designation  string `json:"designation" validate:"max=100"`
	Department   string `json:"department" validate:"max=100"`
	Organization string `json:"organization" validate:"max=150"`
	Address      string `json:"address" validate:"max=500"`
	Note         string `json:"note" validate:"max=500"`
}

type IntakeRequest struct {
	Kind        models.Kind `json:"kind"`
	PayerFields PayerFields `json:"payerFields"`
	Amount      int64       `json:"amount"`
}

// IntakeValidator shapes input and enforces identity uniqueness before the
// ledger row exists. It never calls the gateway.
type IntakeValidator struct {
	ledger   *OrderLedger
	validate *validator.Validate
	currency string
	logger   *slog.Logger
}

func NewIntakeValidator(ledger *OrderLedger, currency string, logger *slog.Logger) *IntakeValidator {
	return &IntakeValidator{
		ledger:   ledger,
		validate: validator.New(),
		currency: currency,
		logger:   logger,
	}
}

func (v *IntakeValidator) Intake(ctx context.Context, req IntakeRequest) (*models.PayableOrder, error) {
	payer := normalizePayer(req.PayerFields)

	policy, err := v.check(req.Kind, payer, req.Amount)
	if err != nil {
		return nil, err
	}

	if policy.UniquePayer {
		live, err := v.ledger.HasLiveRecord(ctx, req.Kind, payer.Email)
		if err != nil {
			return nil, fmt.Errorf("check existing %s for %s: %w", req.Kind, payer.Email, err)
		}
		if live {
			return nil, &DuplicatePayerError{Kind: string(req.Kind), Email: payer.Email}
		}
	}

	order := &models.PayableOrder{
		ID:   uuid.NewString(),
		Kind: req.Kind,
		PayerSnapshot: datatypes.NewJSONType(models.PayerSnapshot{
			Name:         payer.Name,
			Email:        payer.Email,
			Phone:        payer.Phone,
			Designation:  payer.Designation,
			Department:   payer.Department,
			Organization: payer.Organization,
			Address:      payer.Address,
			Note:         payer.Note,
		}),
		PayerEmail:       payer.Email,
		Amount:           req.Amount,
		Currency:         v.currency,
		PaymentStatus:    models.PaymentPending,
		LifecycleStatus:  policy.InitialLifecycle(),
		FulfillmentState: models.FulfillmentNotAttempted,
	}

	if err := v.ledger.Create(ctx, order); err != nil {
		// the partial unique index catches concurrent intakes for one identity
		if errors.Is(err, gorm.ErrDuplicatedKey) && policy.UniquePayer {
			return nil, &DuplicatePayerError{Kind: string(req.Kind), Email: payer.Email}
		}
		return nil, fmt.Errorf("create payable order: %w", err)
	}

	v.logger.Info("payable order created",
		"order_id", order.ID,
		"kind", order.Kind,
		"amount", order.Amount,
	)
	return order, nil
}

func (v *IntakeValidator) check(kind models.Kind, payer PayerFields, amount int64) (models.KindPolicy, error) {
	fields := map[string]string{}

	policy, ok := models.PolicyFor(kind)
	if !ok {
		fields["kind"] = fmt.Sprintf("must be one of %v", models.Kinds())
	}
	if amount <= 0 {
		fields["amount"] = "must be a positive integer in minor units"
	}

	if err := v.validate.Struct(payer); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return policy, err
		}
		for _, fe := range verrs {
			fields["payerFields."+jsonName(fe.Field())] = describeRule(fe)
		}
	}

	if len(fields) > 0 {
		return policy, &ValidationError{Fields: fields}
	}
	return policy, nil
}

func normalizePayer(p PayerFields) PayerFields {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.Designation = strings.TrimSpace(p.Designation)
	p.Department = strings.TrimSpace(p.Department)
	p.Organization = strings.TrimSpace(p.Organization)
	p.Address = strings.TrimSpace(p.Address)
	p.Note = strings.TrimSpace(p.Note)
	return p
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
