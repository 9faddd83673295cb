package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websitedesigna/tastygrill/models"
)

func TestOrderItemsFromCart_Scenario(t *testing.T) {
	cart := scenarioCart()

	items := models.OrderItemsFromCart(cart)
	require.Len(t, items, 2)

	assert.Equal(t, "pizza1", items[0].MenuItemID)
	assert.Nil(t, items[0].Size)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, dec("14.00").Equal(items[0].LineTotal))

	assert.Equal(t, "burger1", items[1].MenuItemID)
	require.NotNil(t, items[1].Size)
	assert.Equal(t, "Medium", *items[1].Size)
	assert.Equal(t, 1, items[1].Quantity)
	assert.True(t, dec("6.70").Equal(items[1].LineTotal))

	order := &models.Order{TotalAmount: cart.Total(), OrderItems: items}
	assert.NoError(t, order.Validate())
}

func TestOrderValidate(t *testing.T) {
	items := models.OrderItemsFromCart(scenarioCart())

	t.Run("total mismatch", func(t *testing.T) {
		o := &models.Order{TotalAmount: dec("20.00"), OrderItems: items}
		assert.ErrorIs(t, o.Validate(), models.ErrOrderTotalMismatch)
	})

	t.Run("no items", func(t *testing.T) {
		o := &models.Order{TotalAmount: dec("0")}
		assert.Error(t, o.Validate())
	})

	t.Run("bad line total", func(t *testing.T) {
		bad := append([]models.OrderItem(nil), items...)
		bad[0].LineTotal = dec("13.00")
		o := &models.Order{TotalAmount: dec("19.70"), OrderItems: bad}
		assert.Error(t, o.Validate())
	})
}

func TestMenuItemPriceFor(t *testing.T) {
	small, medium := dec("5.00"), dec("6.70")
	sized := &models.MenuItem{Name: "Burger", PriceSmall: &small, PriceMedium: &medium}

	p, err := sized.PriceFor(strPtr(models.SizeMedium))
	require.NoError(t, err)
	assert.True(t, medium.Equal(p))

	_, err = sized.PriceFor(strPtr(models.SizeLarge))
	assert.ErrorIs(t, err, models.ErrUnknownSize)

	_, err = sized.PriceFor(nil)
	assert.ErrorIs(t, err, models.ErrUnknownSize)

	regular := dec("2.50")
	plain := &models.MenuItem{Name: "Chips", Price: &regular}
	p, err = plain.PriceFor(nil)
	require.NoError(t, err)
	assert.True(t, regular.Equal(p))

	_, err = plain.PriceFor(strPtr(models.SizeSmall))
	assert.ErrorIs(t, err, models.ErrUnknownSize)
}

func TestDeliveryDetailsValidate(t *testing.T) {
	d := models.DeliveryDetails{FullName: "Sam", Email: "sam@example.com", Phone: "07700900000", Address: "1 High St"}
	assert.Empty(t, d.Validate())

	d = models.DeliveryDetails{Email: "not-an-email"}
	problems := d.Validate()
	assert.Contains(t, problems, "full_name")
	assert.Contains(t, problems, "phone")
	assert.Contains(t, problems, "address")
	assert.Equal(t, "email is invalid", problems["email"])
	assert.Equal(t, "full name is required", problems["full_name"])

	d = models.DeliveryDetails{FullName: "Sam", Phone: "07700900000", Address: "   "}
	problems = d.Validate()
	assert.Equal(t, "email is required", problems["email"])
	assert.Equal(t, "address is required", problems["address"])
	assert.NotContains(t, problems, "phone")
}
