package httpapi

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shelfsense/shelfsense/internal/config"
	"github.com/shelfsense/shelfsense/internal/core"
	"go.uber.org/zap"
)

// Server exposes the stored orders, the suggestion set and the receipt
// photo upload over HTTP
type Server struct {
	orders      core.OrderStore
	suggestions core.SuggestionStore
	receipts    *core.ReceiptService
	logger      *zap.Logger
	cfg         config.HTTPConfig
	app         *fiber.App
}

// NewServer creates a new HTTP API server
func NewServer(
	orders core.OrderStore,
	suggestions core.SuggestionStore,
	receipts *core.ReceiptService,
	logger *zap.Logger,
	cfg config.HTTPConfig,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "shelfsense",
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	s := &Server{
		orders:      orders,
		suggestions: suggestions,
		receipts:    receipts,
		logger:      logger,
		cfg:         cfg,
		app:         app,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/orders", s.listOrders)
	api.Get("/orders/number/:orderNumber", s.getOrderByNumber)
	api.Get("/orders/:id", s.getOrder)
	api.Get("/suggestions", s.listSuggestions)
	api.Post("/receipts/extract-text", s.uploadReceipt)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("HTTP API starting", zap.String("address", s.cfg.ListenAddress))
	go func() {
		if err := s.app.Listen(s.cfg.ListenAddress); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the HTTP server down
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

type orderResponse struct {
	ID          int64          `json:"id"`
	OrderNumber string         `json:"order_number"`
	OrderDate   string         `json:"order_date"`
	Items       []itemResponse `json:"items"`
}

type itemResponse struct {
	ID             int64  `json:"id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	WeightOrVolume string `json:"weight_or_volume,omitempty"`
	GeneralName    string `json:"general_name,omitempty"`
	FoodType       string `json:"food_type,omitempty"`
}

type suggestionResponse struct {
	ItemKey          string `json:"item_key"`
	LastPurchaseDate string `json:"last_purchase_date"`
	Category         string `json:"category"`
	DisplayName      string `json:"display_name"`
}

func toOrderResponse(order *core.Order) orderResponse {
	resp := orderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		OrderDate:   order.OrderDate.Format("2006-01-02"),
		Items:       make([]itemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID:             item.ID,
			ProductName:    item.RawName,
			Quantity:       item.Quantity,
			WeightOrVolume: item.WeightOrVolume,
			GeneralName:    item.GeneralName,
			FoodType:       item.FoodType,
		})
	}
	return resp
}

func (s *Server) listOrders(c *fiber.Ctx) error {
	orders, err := s.orders.ListOrders(c.Context())
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list orders")
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	return c.JSON(resp)
}

func (s *Server) getOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	order, err := s.orders.GetOrder(c.Context(), id)
	if err != nil {
		s.logger.Error("Failed to get order", zap.Int64("id", id), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get order")
	}
	if order == nil {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	return c.JSON(toOrderResponse(order))
}

func (s *Server) getOrderByNumber(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	order, err := s.orders.GetOrderByNumber(c.Context(), orderNumber)
	if err != nil {
		s.logger.Error("Failed to get order by number",
			zap.String("order_number", orderNumber), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to get order")
	}
	if order == nil {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}
	return c.JSON(toOrderResponse(order))
}

func (s *Server) listSuggestions(c *fiber.Ctx) error {
	suggestions, err := s.suggestions.ListSuggestions(c.Context())
	if err != nil {
		s.logger.Error("Failed to list suggestions", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list suggestions")
	}

	resp := make([]suggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		resp = append(resp, suggestionResponse{
			ItemKey:          suggestion.ItemKey,
			LastPurchaseDate: suggestion.LastPurchaseDate.Format("2006-01-02"),
			Category:         string(suggestion.Category),
			DisplayName:      suggestion.Category.DisplayName(),
		})
	}
	return c.JSON(resp)
}

func (s *Server) uploadReceipt(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "please upload a valid image file")
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		return fiber.NewError(fiber.StatusBadRequest, "please upload a valid image file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
	defer cancel()

	order, err := s.receipts.ProcessPhoto(ctx, image)
	if err != nil {
		return s.photoError(c, err)
	}

	s.logger.Info("Processed uploaded receipt",
		zap.String("filename", fileHeader.Filename),
		zap.String("order_number", order.OrderNumber))

	return c.JSON(fiber.Map{
		"status": "success",
		"order":  toOrderResponse(order),
	})
}

// photoError maps the pipeline's sentinel errors onto HTTP statuses
func (s *Server) photoError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, core.ErrDuplicateOrder):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status": "error", "message": err.Error(),
		})
	case errors.Is(err, core.ErrNoTextDetected),
		errors.Is(err, core.ErrNoOrderNumber),
		errors.Is(err, core.ErrNoOrderDate),
		errors.Is(err, core.ErrNoItemsExtracted):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status": "error", "message": err.Error(),
		})
	default:
		s.logger.Error("Failed to process uploaded receipt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "failed to process receipt",
		})
	}
}
