package forms

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mbs-manager/internal/core"
	"mbs-manager/internal/repository"
)

type CustomerDraft struct {
	CompanyName  string            `json:"company_name" jsonschema:"title=Raison sociale,minLength=1"`
	ContactName  string            `json:"contact_name" jsonschema:"title=Contact,minLength=1"`
	Email        string            `json:"email,omitempty" jsonschema:"format=email"`
	Phone        string            `json:"phone,omitempty"`
	Mobile       string            `json:"mobile,omitempty"`
	Address      string            `json:"address,omitempty"`
	City         string            `json:"city,omitempty"`
	PostalCode   string            `json:"postal_code,omitempty"`
	Country      string            `json:"country" jsonschema:"default=Martinique"`
	TaxID        string            `json:"tax_id,omitempty"`
	PaymentTerms string            `json:"payment_terms" jsonschema:"default=30 days"`
	CreditLimit  decimal.Decimal   `json:"credit_limit"`
	CustomerType core.CustomerType `json:"customer_type" jsonschema:"enum=restaurant,enum=hotel,enum=bar,enum=retail,enum=other,default=other"`
	Notes        string            `json:"notes,omitempty"`
}

func DefaultCustomerDraft() CustomerDraft {
	return CustomerDraft{
		Country:      "Martinique",
		PaymentTerms: "30 days",
		CreditLimit:  decimal.Zero,
		CustomerType: core.CustomerOther,
	}
}

type CustomerForm struct {
	status
	repos     *repository.Set
	log       *zap.Logger
	onSuccess OnSuccess

	mu    sync.Mutex
	draft CustomerDraft
}

func NewCustomerForm(repos *repository.Set, log *zap.Logger, onSuccess OnSuccess) *CustomerForm {
	return &CustomerForm{repos: repos, log: log, onSuccess: onSuccess, draft: DefaultCustomerDraft()}
}

func (f *CustomerForm) Draft() CustomerDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *CustomerForm) SetDraft(d CustomerDraft) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

func (f *CustomerForm) Reset() { f.SetDraft(DefaultCustomerDraft()) }

func (f *CustomerForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &f.draft
	switch field {
	case "company_name":
		d.CompanyName = value
	case "contact_name":
		d.ContactName = value
	case "email":
		d.Email = value
	case "phone":
		d.Phone = value
	case "mobile":
		d.Mobile = value
	case "address":
		d.Address = value
	case "city":
		d.City = value
	case "postal_code":
		d.PostalCode = value
	case "country":
		d.Country = value
	case "tax_id":
		d.TaxID = value
	case "payment_terms":
		d.PaymentTerms = value
	case "credit_limit":
		d.CreditLimit = ParseMoney(value)
	case "customer_type":
		d.CustomerType = core.CustomerType(value)
	case "notes":
		d.Notes = value
	default:
		return fmt.Errorf("unknown customer field %q", field)
	}
	return nil
}

func (f *CustomerForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	d := f.Draft()
	err := f.submit(ctx, d)
	f.end(err)
	if err != nil {
		return err
	}
	f.Reset()
	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}

func (f *CustomerForm) submit(ctx context.Context, d CustomerDraft) error {
	if blank(d.CompanyName) {
		return core.NewValidationError("company_name", "La raison sociale est requise")
	}
	if blank(d.ContactName) {
		return core.NewValidationError("contact_name", "Le nom du contact est requis")
	}
	c, err := f.repos.Customers.Create(ctx, repository.CustomerInput{
		CompanyName:  d.CompanyName,
		ContactName:  d.ContactName,
		Email:        d.Email,
		Phone:        d.Phone,
		Mobile:       d.Mobile,
		Address:      d.Address,
		City:         d.City,
		PostalCode:   d.PostalCode,
		Country:      d.Country,
		TaxID:        d.TaxID,
		PaymentTerms: d.PaymentTerms,
		CreditLimit:  d.CreditLimit,
		CustomerType: d.CustomerType,
		Notes:        d.Notes,
	})
	if err != nil {
		return err
	}
	f.log.Info("customer created", zap.String("customer_id", c.ID))
	return nil
}

type SupplierDraft struct {
	Name          string `json:"name" jsonschema:"title=Nom,minLength=1"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email,omitempty" jsonschema:"format=email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country" jsonschema:"default=France"`
	PaymentTerms  string `json:"payment_terms,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func DefaultSupplierDraft() SupplierDraft {
	return SupplierDraft{Country: "France"}
}

type SupplierForm struct {
	status
	repos     *repository.Set
	log       *zap.Logger
	onSuccess OnSuccess

	mu    sync.Mutex
	draft SupplierDraft
}

func NewSupplierForm(repos *repository.Set, log *zap.Logger, onSuccess OnSuccess) *SupplierForm {
	return &SupplierForm{repos: repos, log: log, onSuccess: onSuccess, draft: DefaultSupplierDraft()}
}

func (f *SupplierForm) Draft() SupplierDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *SupplierForm) SetDraft(d SupplierDraft) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()
}

func (f *SupplierForm) Reset() { f.SetDraft(DefaultSupplierDraft()) }

func (f *SupplierForm) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &f.draft
	switch field {
	case "name":
		d.Name = value
	case "contact_person":
		d.ContactPerson = value
	case "email":
		d.Email = value
	case "phone":
		d.Phone = value
	case "address":
		d.Address = value
	case "city":
		d.City = value
	case "country":
		d.Country = value
	case "payment_terms":
		d.PaymentTerms = value
	case "notes":
		d.Notes = value
	default:
		return fmt.Errorf("unknown supplier field %q", field)
	}
	return nil
}

func (f *SupplierForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	d := f.Draft()
	err := f.submit(ctx, d)
	f.end(err)
	if err != nil {
		return err
	}
	f.Reset()
	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}
	return nil
}

func (f *SupplierForm) submit(ctx context.Context, d SupplierDraft) error {
	if blank(d.Name) {
		return core.NewValidationError("name", "Le nom du fournisseur est requis")
	}
	_, err := f.repos.Suppliers.Create(ctx, repository.SupplierInput{
		Name:          d.Name,
		ContactPerson: d.ContactPerson,
		Email:         d.Email,
		Phone:         d.Phone,
		Address:       d.Address,
		City:          d.City,
		Country:       d.Country,
		PaymentTerms:  d.PaymentTerms,
		Notes:         d.Notes,
	})
	return err
}
