package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository using MongoDB.
type OrderRepository struct {
	col *mongo.Collection
	seq *sequence
	now func() time.Time
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders), seq: newSequence(db), now: time.Now}
}

type orderDocument struct {
	ID              int64                `bson:"_id"`
	OrderNumber     string               `bson:"order_number"`
	UserID          int64                `bson:"user_id"`
	Username        string               `bson:"username"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	Status          string               `bson:"status"`
	OrderDate       time.Time            `bson:"order_date"`
	DeliveryAddress string               `bson:"delivery_address,omitempty"`
	Notes           string               `bson:"notes,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

// toDecimal128 stores amounts with a fixed scale of 2.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.StringFixed(2))
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert amount %s: %w", v, err)
	}
	return d, nil
}

func toOrderDocument(o *domain.Order) (orderDocument, error) {
	amount, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return orderDocument{}, err
	}
	return orderDocument{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Username:        o.Username,
		TotalAmount:     amount,
		Status:          string(o.Status),
		OrderDate:       o.OrderDate.UTC(),
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}, nil
}

func toDomainOrder(d *orderDocument) (*domain.Order, error) {
	amount, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ID:              d.ID,
		OrderNumber:     d.OrderNumber,
		UserID:          d.UserID,
		Username:        d.Username,
		TotalAmount:     amount,
		Status:          domain.OrderStatus(d.Status),
		OrderDate:       d.OrderDate.UTC(),
		DeliveryAddress: d.DeliveryAddress,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}, nil
}

// Create assigns the next order id and inserts the document.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionOrders)
	if err != nil {
		return err
	}
	order.ID = id

	doc, err := toOrderDocument(order)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		order.ID = 0
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Update sets only the changed fields and filters on the expected status.
func (r *OrderRepository) Update(ctx context.Context, id int64, expected domain.OrderStatus, changes ports.OrderChanges) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set, err := orderChangeSet(changes)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": string(expected)}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return r.unmatched(ctx, id)
}

func orderChangeSet(changes ports.OrderChanges) (bson.M, error) {
	set := bson.M{"updated_at": changes.UpdatedAt.UTC()}
	if changes.TotalAmount != nil {
		amount, err := toDecimal128(*changes.TotalAmount)
		if err != nil {
			return nil, err
		}
		set["total_amount"] = amount
	}
	if changes.DeliveryAddress != nil {
		set["delivery_address"] = *changes.DeliveryAddress
	}
	if changes.Notes != nil {
		set["notes"] = *changes.Notes
	}
	if changes.Status != nil {
		set["status"] = string(*changes.Status)
	}
	return set, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return toDomainOrder(&doc)
}

func (r *OrderRepository) FindByUserID(ctx context.Context, userID int64, page ports.Page) ([]*domain.Order, int64, error) {
	return findPage(ctx, r.col, bson.M{"user_id": userID}, page, toDomainOrder)
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus, page ports.Page) ([]*domain.Order, int64, error) {
	return findPage(ctx, r.col, bson.M{"status": string(status)}, page, toDomainOrder)
}

func (r *OrderRepository) FindAll(ctx context.Context, page ports.Page) ([]*domain.Order, int64, error) {
	return findPage(ctx, r.col, bson.M{}, page, toDomainOrder)
}

func (r *OrderRepository) Search(ctx context.Context, term string, page ports.Page) ([]*domain.Order, int64, error) {
	return findPage(ctx, r.col, orderSearchFilter(term), page, toDomainOrder)
}

func orderSearchFilter(term string) bson.M {
	re := containsInsensitive(term)
	return bson.M{"$or": bson.A{
		bson.M{"order_number": re},
		bson.M{"delivery_address": re},
	}}
}

func (r *OrderRepository) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	n, err := r.count(ctx, bson.M{"order_number": orderNumber})
	return n > 0, err
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	return r.count(ctx, bson.M{"status": string(status)})
}

func (r *OrderRepository) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, r.statusUpdate(status))
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// CompareAndSetStatus filters on the expected status so a concurrent change
// makes the update match nothing.
func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": string(from)}, r.statusUpdate(to))
	if err != nil {
		return fmt.Errorf("compare and set order status: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return r.unmatched(ctx, id)
}

// unmatched tells a missing order apart from one whose status moved on.
func (r *OrderRepository) unmatched(ctx context.Context, id int64) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return domain.ErrConcurrentUpdate
}

func (r *OrderRepository) statusUpdate(status domain.OrderStatus) bson.M {
	return bson.M{"$set": bson.M{"status": string(status), "updated_at": r.now().UTC()}}
}
