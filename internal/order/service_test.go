package order_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/solatech/solar-commerce/internal"
	"github.com/solatech/solar-commerce/internal/cart"
	orderdm "github.com/solatech/solar-commerce/internal/core/datamodel/order"
	"github.com/solatech/solar-commerce/internal/core/events"
	orderPkg "github.com/solatech/solar-commerce/internal/order"
	"github.com/solatech/solar-commerce/internal/payment"
)

func TestOrder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Order Module Suite")
}

type mockOrderRepository struct {
	orders      map[int64]*orderdm.Order
	nextID      int64
	createError error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[int64]*orderdm.Order), nextID: 1}
}

func (m *mockOrderRepository) Create(o *orderdm.Order) error {
	if m.createError != nil {
		return m.createError
	}
	o.ID = m.nextID
	m.nextID++
	o.CreatedAt = time.Now()
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepository) GetByID(id int64) (*orderdm.Order, error) {
	o, exists := m.orders[id]
	if !exists {
		return nil, apperrors.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) GetByCustomerID(customerID int64, limit, offset int) ([]*orderdm.Order, error) {
	var out []*orderdm.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(id int64, status string) error {
	o, exists := m.orders[id]
	if !exists {
		return apperrors.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

type mockCart struct {
	view       *cart.CartView
	getError   error
	clearCalls int
}

func (m *mockCart) GetCart(userID int64) (*cart.CartView, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	return m.view, nil
}

func (m *mockCart) Clear(userID int64) error {
	m.clearCalls++
	return nil
}

type mockStock struct {
	decrements map[int64]int
	restores   map[int64]int
	failFor    int64
}

func (m *mockStock) DecrementStock(productID int64, quantity int) error {
	if m.failFor == productID {
		return apperrors.NewValidationError("insufficient stock", apperrors.ErrCodeInvalidQuantity)
	}
	if m.decrements == nil {
		m.decrements = make(map[int64]int)
	}
	m.decrements[productID] += quantity
	return nil
}

func (m *mockStock) RestoreStock(productID int64, quantity int) error {
	if m.restores == nil {
		m.restores = make(map[int64]int)
	}
	m.restores[productID] += quantity
	return nil
}

type mockPaymentInitiator struct {
	response      *payment.InitiatePaymentResponse
	initiateError error
	lastRequest   *payment.InitiatePaymentRequest
}

func (m *mockPaymentInitiator) Initiate(ctx context.Context, userID int64, req *payment.InitiatePaymentRequest) (*payment.InitiatePaymentResponse, error) {
	m.lastRequest = req
	if m.initiateError != nil {
		return nil, m.initiateError
	}
	return m.response, nil
}

var _ = Describe("OrderService", func() {
	var (
		service   *orderPkg.Service
		mockRepo  *mockOrderRepository
		cartSvc   *mockCart
		stock     *mockStock
		initiator *mockPaymentInitiator
		ctx       context.Context
	)

	BeforeEach(func() {
		mockRepo = newMockOrderRepository()
		cartSvc = &mockCart{
			view: &cart.CartView{
				Items: []cart.ItemView{
					{ProductID: 1, Name: "Solar Home Kit 50W", Price: 7500, Quantity: 2, Subtotal: 15000},
					{ProductID: 2, Name: "LiFePO4 Battery", Price: 38000, Quantity: 1, Subtotal: 38000},
				},
				Total: 53000,
			},
		}
		stock = &mockStock{}
		initiator = &mockPaymentInitiator{
			response: &payment.InitiatePaymentResponse{
				TransactionID:     1,
				CheckoutRequestID: "ws_CO_123",
			},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()

		service = orderPkg.NewService(mockRepo, cartSvc, stock, initiator, logger)
	})

	Describe("Checkout", func() {
		Context("when the cart has items", func() {
			It("should create a pending order for the cart total and start payment", func() {
				resp, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Order.Status).To(Equal(orderdm.StatusPending))
				Expect(resp.Order.Total).To(Equal(53000.0))
				Expect(resp.Order.Items).To(HaveLen(2))
				Expect(resp.Payment.CheckoutRequestID).To(Equal("ws_CO_123"))

				Expect(initiator.lastRequest.Amount).To(Equal(53000.0))
				Expect(*initiator.lastRequest.OrderID).To(Equal(resp.Order.ID))
			})

			It("should reserve stock and clear the cart", func() {
				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).ToNot(HaveOccurred())
				Expect(stock.decrements[1]).To(Equal(2))
				Expect(stock.decrements[2]).To(Equal(1))
				Expect(cartSvc.clearCalls).To(Equal(1))
			})
		})

		Context("when the cart is empty", func() {
			It("should reject the checkout", func() {
				cartSvc.view = &cart.CartView{}

				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).To(MatchError(apperrors.ErrCartEmpty))
				Expect(mockRepo.orders).To(BeEmpty())
			})
		})

		Context("when stock is insufficient", func() {
			It("should abort before creating the order", func() {
				stock.failFor = 2

				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).To(HaveOccurred())
				Expect(mockRepo.orders).To(BeEmpty())
				Expect(cartSvc.clearCalls).To(Equal(0))
			})

			It("should hand back units already reserved for earlier items", func() {
				stock.failFor = 2

				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).To(HaveOccurred())
				Expect(stock.decrements[1]).To(Equal(2))
				Expect(stock.restores[1]).To(Equal(2))
				Expect(stock.restores).ToNot(HaveKey(int64(2)))
				Expect(mockRepo.orders).To(BeEmpty())
				Expect(cartSvc.clearCalls).To(Equal(0))
			})
		})

		Context("when persisting the order fails", func() {
			It("should hand back every reserved unit", func() {
				mockRepo.createError = errors.New("connection reset")

				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).To(HaveOccurred())
				Expect(stock.restores[1]).To(Equal(2))
				Expect(stock.restores[2]).To(Equal(1))
				Expect(cartSvc.clearCalls).To(Equal(0))
			})
		})

		Context("when payment initiation fails", func() {
			It("should keep the order so the customer can retry payment", func() {
				initiator.initiateError = errors.New("gateway unreachable")

				resp, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})

				Expect(err).To(HaveOccurred())
				Expect(resp).ToNot(BeNil())
				Expect(resp.Payment).To(BeNil())
				Expect(mockRepo.orders).To(HaveLen(1))
				Expect(mockRepo.orders[resp.Order.ID].Status).To(Equal(orderdm.StatusPending))
			})
		})

		Context("when the phone number is malformed", func() {
			It("should reject the request before touching the cart", func() {
				_, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "07"})

				Expect(err).To(HaveOccurred())
				Expect(mockRepo.orders).To(BeEmpty())
			})
		})
	})

	Describe("UpdateStatus", func() {
		var orderID int64

		BeforeEach(func() {
			resp, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})
			Expect(err).ToNot(HaveOccurred())
			orderID = resp.Order.ID
		})

		It("should refuse to ship an unpaid order", func() {
			err := service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: orderdm.StatusShipped})
			Expect(err).To(HaveOccurred())
		})

		It("should move a paid order to shipped and then delivered", func() {
			Expect(mockRepo.UpdateStatus(orderID, orderdm.StatusPaid)).To(Succeed())

			Expect(service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: orderdm.StatusShipped})).To(Succeed())
			Expect(service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: orderdm.StatusDelivered})).To(Succeed())

			Expect(mockRepo.orders[orderID].Status).To(Equal(orderdm.StatusDelivered))
		})

		It("should reject statuses outside fulfillment", func() {
			err := service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: "pending"})
			Expect(err).To(HaveOccurred())
		})

		It("should not let a paid order skip straight to delivered", func() {
			Expect(mockRepo.UpdateStatus(orderID, orderdm.StatusPaid)).To(Succeed())

			err := service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: orderdm.StatusDelivered})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.orders[orderID].Status).To(Equal(orderdm.StatusPaid))
		})

		It("should not re-apply the current status", func() {
			Expect(mockRepo.UpdateStatus(orderID, orderdm.StatusShipped)).To(Succeed())

			err := service.UpdateStatus(orderID, &orderPkg.UpdateStatusRequest{Status: orderdm.StatusShipped})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetOrder", func() {
		var orderID int64

		BeforeEach(func() {
			resp, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})
			Expect(err).ToNot(HaveOccurred())
			orderID = resp.Order.ID
		})

		It("should deny another customer's order", func() {
			_, err := service.GetOrder(orderID, 7, false)
			Expect(err).To(MatchError(apperrors.ErrUnauthorizedAccess))
		})

		It("should allow admins", func() {
			o, err := service.GetOrder(orderID, 7, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(o.CustomerID).To(Equal(int64(42)))
		})
	})

	Describe("EventHandler", func() {
		var (
			handler *orderPkg.EventHandler
			orderID int64
		)

		BeforeEach(func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			handler = orderPkg.NewEventHandler(mockRepo, logger)

			resp, err := service.Checkout(ctx, 42, &orderPkg.CheckoutRequest{Phone: "254712345678"})
			Expect(err).ToNot(HaveOccurred())
			orderID = resp.Order.ID
		})

		It("should mark the order paid on a completed payment", func() {
			event := events.NewPaymentCompletedEvent(1, &orderID, "ws_CO_123", 53000, "NLJ7RT61SV")

			Expect(handler.HandlePaymentCompleted(ctx, event)).To(Succeed())
			Expect(mockRepo.orders[orderID].Status).To(Equal(orderdm.StatusPaid))
		})

		It("should mark the order payment_failed on a failed payment", func() {
			event := events.NewPaymentFailedEvent(1, &orderID, "ws_CO_123", 53000, "1032", "Request cancelled by user")

			Expect(handler.HandlePaymentFailed(ctx, event)).To(Succeed())
			Expect(mockRepo.orders[orderID].Status).To(Equal(orderdm.StatusPaymentFailed))
		})

		It("should ignore direct payments without an order", func() {
			event := events.NewPaymentCompletedEvent(1, nil, "ws_CO_123", 100, "NLJ7RT61SV")

			Expect(handler.HandlePaymentCompleted(ctx, event)).To(Succeed())
			Expect(mockRepo.orders[orderID].Status).To(Equal(orderdm.StatusPending))
		})
	})
})
