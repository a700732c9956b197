package storeapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/internal/orders"
	"github.com/talkincode/storefront/internal/webserver"
	"github.com/talkincode/storefront/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type addCartPayload struct {
	ProductID int64 `json:"product_id,string" validate:"required"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1"`
}

type updateCartPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// cartView lines plus the running total at current prices
type cartView struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func registerCartRoutes() {
	webserver.ApiGET("/cart", getCart)
	webserver.ApiPOST("/cart", addToCart)
	webserver.ApiPUT("/cart/:id", updateCartItem)
	webserver.ApiDELETE("/cart/:id", removeCartItem)
	webserver.ApiDELETE("/cart", clearCart)
}

func loadCart(db *gorm.DB, userID int64) (*cartView, error) {
	var items []domain.CartItem
	err := db.Preload("Product").Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	view := &cartView{Items: items, Total: decimal.Zero}
	for _, it := range items {
		view.Count += it.Quantity
		if it.Product != nil {
			view.Total = view.Total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	view.Total = view.Total.Round(2)
	return view, nil
}

func getCart(c echo.Context) error {
	view, err := loadCart(GetDB(c), currentUser(c).ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load cart", err.Error())
	}
	return ok(c, view)
}

func failStock(c echo.Context, p *domain.Product, requested int) error {
	e := &orders.InsufficientStockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: requested}
	return fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", e.Error(), map[string]interface{}{
		"product_id": strconv.FormatInt(p.ID, 10),
		"available":  e.Available,
		"requested":  e.Requested,
	})
}

// cartWriteAttempts bounds the merge/insert loop when concurrent adds race on one line
const cartWriteAttempts = 5

// addToCart merges into an existing line for the same product. The merge is a
// compare-and-set on the quantity and the insert does nothing on a (user, product)
// conflict, so concurrent adds retry against the line that won.
func addToCart(c echo.Context) error {
	var payload addCartPayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	userID := currentUser(c).ID

	var p domain.Product
	if err := GetDB(c).Where("id = ? AND is_active = ?", payload.ProductID, true).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	for attempt := 0; attempt < cartWriteAttempts; attempt++ {
		var item domain.CartItem
		err := GetDB(c).Where("user_id = ? AND product_id = ?", userID, p.ID).First(&item).Error
		switch {
		case err == nil:
			qty := item.Quantity + payload.Quantity
			if verr := orders.ValidateQuantity(qty); verr != nil {
				return webserver.FailOrder(c, verr, "Failed to update cart")
			}
			if qty > p.Stock {
				return failStock(c, &p, qty)
			}
			now := time.Now()
			res := GetDB(c).Model(&domain.CartItem{}).
				Where("id = ? AND quantity = ?", item.ID, item.Quantity).
				Updates(map[string]interface{}{"quantity": qty, "updated_at": now})
			if res.Error != nil {
				return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update cart", res.Error.Error())
			}
			if res.RowsAffected == 0 {
				continue
			}
			item.Quantity, item.UpdatedAt, item.Product = qty, now, &p
			return ok(c, item)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load cart", err.Error())
		}

		if verr := orders.ValidateQuantity(payload.Quantity); verr != nil {
			return webserver.FailOrder(c, verr, "Failed to add to cart")
		}
		if payload.Quantity > p.Stock {
			return failStock(c, &p, payload.Quantity)
		}
		item = domain.CartItem{
			ID:        common.UUIDint64(),
			UserID:    userID,
			ProductID: p.ID,
			Quantity:  payload.Quantity,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		res := GetDB(c).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).Create(&item)
		if res.Error != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add to cart", res.Error.Error())
		}
		if res.RowsAffected == 0 {
			continue
		}
		item.Product = &p
		return created(c, item)
	}
	return fail(c, http.StatusConflict, "CART_CONFLICT", "Cart was changed by another request, try again", nil)
}

func findCartItem(c echo.Context) (*domain.CartItem, error) {
	id, err := webserver.ParseIDParam(c, "id")
	if err != nil {
		return nil, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid cart item ID", nil)
	}
	var item domain.CartItem
	err = GetDB(c).Preload("Product").Where("id = ? AND user_id = ?", id, currentUser(c).ID).First(&item).Error
	if err != nil {
		return nil, fail(c, http.StatusNotFound, "NOT_FOUND", "Cart item not found", nil)
	}
	return &item, nil
}

func updateCartItem(c echo.Context) error {
	var payload updateCartPayload
	if handled, err := webserver.BindAndValidate(c, &payload); handled {
		return err
	}
	item, err := findCartItem(c)
	if item == nil {
		return err
	}
	if verr := orders.ValidateQuantity(payload.Quantity); verr != nil {
		return webserver.FailOrder(c, verr, "Failed to update cart")
	}
	if item.Product == nil || !item.Product.IsActive {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if payload.Quantity > item.Product.Stock {
		return failStock(c, item.Product, payload.Quantity)
	}
	if err := GetDB(c).Model(item).Update("quantity", payload.Quantity).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update cart", err.Error())
	}
	return ok(c, item)
}

func removeCartItem(c echo.Context) error {
	item, err := findCartItem(c)
	if item == nil {
		return err
	}
	if err := GetDB(c).Delete(&domain.CartItem{}, item.ID).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to remove cart item", err.Error())
	}
	return ok(c, map[string]string{"id": strconv.FormatInt(item.ID, 10)})
}

func clearCart(c echo.Context) error {
	if err := GetDB(c).Where("user_id = ?", currentUser(c).ID).Delete(&domain.CartItem{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to clear cart", err.Error())
	}
	return ok(c, map[string]string{"message": "Cart cleared"})
}
