package auth

import (
	"context"
	"fmt"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Caller is a verified identity. The set is closed: Customer or Seller.
type Caller interface {
	UserID() int64
	Role() Role
	caller()
}

type Customer struct{ ID int64 }

func (c Customer) UserID() int64 { return c.ID }
func (Customer) Role() Role      { return RoleCustomer }
func (Customer) caller()         {}

type Seller struct{ ID int64 }

func (s Seller) UserID() int64 { return s.ID }
func (Seller) Role() Role      { return RoleSeller }
func (Seller) caller()         {}

// NewCaller resolves a role name into its capability.
func NewCaller(userID int64, role string) (Caller, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id %d", userID)
	}
	switch Role(role) {
	case RoleCustomer:
		return Customer{ID: userID}, nil
	case RoleSeller:
		return Seller{ID: userID}, nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
