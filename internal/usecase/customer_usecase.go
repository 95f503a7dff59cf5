package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashdesk/internal/domain"
)

// CustomerUseCase handles customer management.
type CustomerUseCase struct {
	customerRepo CustomerRepository
	idGen        IDGenerator
	logger       zerolog.Logger
	now          func() time.Time
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(customerRepo CustomerRepository, idGen IDGenerator, logger zerolog.Logger) *CustomerUseCase {
	return &CustomerUseCase{
		customerRepo: customerRepo,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateCustomerInput represents input for creating a customer.
type CreateCustomerInput struct {
	Name        string
	PhoneNumber string
	Email       string
	Actor       domain.Actor
}

// UpdateCustomerInput represents input for updating a customer. Nil fields are kept.
type UpdateCustomerInput struct {
	ID          string
	Name        *string
	PhoneNumber *string
	Email       *string
	IsActive    *bool
}

// CustomerList is one page of customers.
type CustomerList struct {
	Items []*domain.Customer
	Total int64
	Page  domain.Page
}

// Create registers an active customer. Phone numbers must not already be in use.
func (uc *CustomerUseCase) Create(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error) {
	if err := validateCustomer(input.Name, input.PhoneNumber, input.Email); err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if err := uc.ensurePhoneFree(ctx, phone, ""); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	customer := &domain.Customer{
		ID:          uc.idGen.Generate(),
		Name:        strings.TrimSpace(input.Name),
		PhoneNumber: phone,
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		IsActive:    true,
		CreatedBy:   input.Actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("customer_id", customer.ID).Msg("customer created")
	return customer, nil
}

// Get returns a customer by id.
func (uc *CustomerUseCase) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return uc.customerRepo.GetByID(ctx, id)
}

// List returns customers matching search on name or phone.
func (uc *CustomerUseCase) List(ctx context.Context, search string, page, limit int) (*CustomerList, error) {
	p := domain.NewPage(page, limit)

	items, total, err := uc.customerRepo.List(ctx, strings.TrimSpace(search), p)
	if err != nil {
		return nil, err
	}

	return &CustomerList{Items: items, Total: total, Page: p}, nil
}

// Update amends a customer.
func (uc *CustomerUseCase) Update(ctx context.Context, input UpdateCustomerInput) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		customer.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone != customer.PhoneNumber {
			if err := uc.ensurePhoneFree(ctx, phone, customer.ID); err != nil {
				return nil, err
			}
		}
		customer.PhoneNumber = phone
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := validateCustomer(customer.Name, customer.PhoneNumber, customer.Email); err != nil {
		return nil, err
	}

	customer.UpdatedAt = uc.now().UTC()

	if err := uc.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func (uc *CustomerUseCase) ensurePhoneFree(ctx context.Context, phone, selfID string) error {
	existing, err := uc.customerRepo.GetByPhone(ctx, phone)
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return domain.ErrDuplicatePhone
	}
	return nil
}

func validateCustomer(name, phone, email string) error {
	if err := domain.ValidateName("name", name); err != nil {
		return err
	}
	if err := domain.ValidatePhone(phone); err != nil {
		return err
	}
	if strings.TrimSpace(email) != "" {
		if err := domain.ValidateEmail(email); err != nil {
			return err
		}
	}
	return nil
}
