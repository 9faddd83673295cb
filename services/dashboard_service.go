package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/repository"
)

const DefaultDashboardPageSize = 50

type DashboardOrderItem struct {
	Name      string          `json:"name"`
	Size      *string         `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// DashboardOrder is one order as the staff dashboard shows it.
type DashboardOrder struct {
	ID              uuid.UUID             `json:"id"`
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	Status          models.OrderStatus    `json:"status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	DeliveryAddress string                `json:"delivery_address"`
	Phone           string                `json:"phone"`
	Notes           *string               `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []DashboardOrderItem  `json:"items"`
	Actions         []models.ActionOption `json:"actions"`
}

// DashboardView is a filtered page plus per-status counts. Counts cover
// the whole loaded page, not the whole table.
type DashboardView struct {
	Orders   []DashboardOrder           `json:"orders"`
	Counts   map[models.OrderStatus]int `json:"counts"`
	Total    int                        `json:"total"`
	Filter   string                     `json:"filter"`
	LoadedAt time.Time                  `json:"loaded_at"`
}

type DashboardService struct {
	orders   repository.OrderRepository
	pageSize int
	log      *zap.Logger
}

func NewDashboardService(orders repository.OrderRepository, pageSize int, log *zap.Logger) *DashboardService {
	if pageSize <= 0 {
		pageSize = DefaultDashboardPageSize
	}
	return &DashboardService{orders: orders, pageSize: pageSize, log: log}
}

// LoadPage fetches the newest orders, newest first.
func (s *DashboardService) LoadPage(ctx context.Context) ([]DashboardOrder, error) {
	orders, err := s.orders.FindRecent(ctx, s.pageSize)
	if err != nil {
		return nil, apperrors.Internal("Failed to load orders", err)
	}
	page := make([]DashboardOrder, 0, len(orders))
	for i := range orders {
		page = append(page, toDashboardOrder(&orders[i]))
	}
	return page, nil
}

// Load returns the current page filtered by status; a nil filter shows all.
func (s *DashboardService) Load(ctx context.Context, filter *models.OrderStatus) (*DashboardView, error) {
	page, err := s.LoadPage(ctx)
	if err != nil {
		return nil, err
	}
	view := BuildView(page, filter, time.Now().UTC())
	return &view, nil
}

func toDashboardOrder(o *models.Order) DashboardOrder {
	d := DashboardOrder{
		ID:              o.ID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		Phone:           o.Phone,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           make([]DashboardOrderItem, 0, len(o.OrderItems)),
		Actions:         models.ActionsFor(o.Status),
	}
	if o.Customer != nil {
		d.CustomerName = o.Customer.FullName
		d.CustomerEmail = o.Customer.Email
		if d.CustomerName == "" {
			d.CustomerName = o.Customer.Email
		}
	}
	for _, item := range o.OrderItems {
		name := "Unknown item"
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		}
		d.Items = append(d.Items, DashboardOrderItem{
			Name:      name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return d
}

// BuildView filters page in memory and counts statuses over the full page.
func BuildView(page []DashboardOrder, filter *models.OrderStatus, loadedAt time.Time) DashboardView {
	counts := make(map[models.OrderStatus]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	orders := make([]DashboardOrder, 0, len(page))
	for _, o := range page {
		counts[o.Status]++
		if filter == nil || o.Status == *filter {
			orders = append(orders, o)
		}
	}

	label := "all"
	if filter != nil {
		label = string(*filter)
	}
	return DashboardView{
		Orders:   orders,
		Counts:   counts,
		Total:    len(page),
		Filter:   label,
		LoadedAt: loadedAt,
	}
}

// Board holds a loaded page and patches it from order events.
type Board struct {
	mu       sync.Mutex
	orders   []DashboardOrder
	index    map[uuid.UUID]int
	loadedAt time.Time
}

func NewBoard(page []DashboardOrder) *Board {
	b := &Board{}
	b.Replace(page)
	return b
}

// Replace swaps in a freshly loaded page.
func (b *Board) Replace(page []DashboardOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders = make([]DashboardOrder, len(page))
	copy(b.orders, page)
	b.index = make(map[uuid.UUID]int, len(page))
	for i, o := range b.orders {
		b.index[o.ID] = i
	}
	b.loadedAt = time.Now().UTC()
}

// Apply patches a status change into the page in place. It returns true
// when the event cannot be applied locally and the page must be reloaded:
// new orders, and changes to orders not on the page.
func (b *Board) Apply(evt models.OrderEvent) bool {
	if evt.Type != models.OrderStatusChanged || !evt.After.IsValid() {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[evt.OrderID]
	if !ok {
		return true
	}
	b.orders[i].Status = evt.After
	b.orders[i].Actions = models.ActionsFor(evt.After)
	return false
}

// Order returns the current state of one order on the page.
func (b *Board) Order(id uuid.UUID) (DashboardOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[id]
	if !ok {
		return DashboardOrder{}, false
	}
	return b.orders[i], true
}

func (b *Board) View(filter *models.OrderStatus) DashboardView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BuildView(b.orders, filter, b.loadedAt)
}

// ParseStatusFilter maps "", "all" to no filter.
func ParseStatusFilter(s string) (*models.OrderStatus, error) {
	if s == "" || s == "all" {
		return nil, nil
	}
	status, err := models.ParseOrderStatus(s)
	if err != nil {
		return nil, apperrors.BadRequest("Unknown status filter", err)
	}
	return &status, nil
}
