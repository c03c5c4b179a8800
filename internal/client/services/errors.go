package services

import (
	"errors"

	"github.com/dmitrijs2005/posmart/internal/common"
)

var (
	ErrInsufficientStock = common.ErrInsufficientStock
	ErrProductNotFound   = errors.New("product not found")
)
