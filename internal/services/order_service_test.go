package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wms-service/internal/models"
)

func TestAddressHash_NormalizesFormattingNoise(t *testing.T) {
	a := models.ShippingAddress{
		Street1:    "123 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
	b := models.ShippingAddress{
		Street1:    "  123  MAIN st ",
		City:       "springfield",
		State:      "il",
		PostalCode: " 62701",
		Country:    "us ",
	}

	assert.Equal(t, AddressHash(a), AddressHash(b))
}

func TestAddressHash_IgnoresNameAndStreet2(t *testing.T) {
	base := models.ShippingAddress{
		Street1:    "123 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
	withSuite := base
	withSuite.Name = "Pat Jones"
	withSuite.Street2 = "Suite 400"

	assert.Equal(t, AddressHash(base), AddressHash(withSuite))
}

func TestAddressHash_DifferentDestinationsDiffer(t *testing.T) {
	a := models.ShippingAddress{Street1: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"}
	b := a
	b.PostalCode = "62702"

	assert.NotEqual(t, AddressHash(a), AddressHash(b))
}
