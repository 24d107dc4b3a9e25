package model

import (
	"fmt"

	"ride-sim/internal/ride-sim/core/myerrors"
)

// Permission mirrors the platform location authorization status.
type Permission string

const (
	PermissionNotDetermined       Permission = "notDetermined"
	PermissionRestricted          Permission = "restricted"
	PermissionDenied              Permission = "denied"
	PermissionAuthorizedWhenInUse Permission = "authorizedWhenInUse"
	PermissionAuthorizedAlways    Permission = "authorizedAlways"
)

func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionNotDetermined, PermissionRestricted, PermissionDenied,
		PermissionAuthorizedWhenInUse, PermissionAuthorizedAlways:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", myerrors.ErrInvalidPermission, s)
}

func (p Permission) Authorized() bool {
	return p == PermissionAuthorizedWhenInUse || p == PermissionAuthorizedAlways
}

func (p Permission) Refused() bool {
	return p == PermissionDenied || p == PermissionRestricted
}
