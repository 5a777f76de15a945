package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cartorio/pkg/apperr"
	"cartorio/pkg/payments"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func setupRoutes(r *gin.Engine) {
	registerValidators()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "server running"})
	})
	r.Static("/uploads", receiptStore.Base)

	r.GET("/payment-types", listPaymentTypesHandler)
	r.POST("/payment-types", createPaymentTypeHandler)

	r.GET("/payments", listPaymentsHandler)
	r.POST("/payments", createPaymentHandler)
	r.GET("/payments/export", exportPaymentsHandler)
	r.GET("/payments/:id", getPaymentHandler)
	r.PUT("/payments/:id", updatePaymentHandler)
	r.DELETE("/payments/:id", deletePaymentHandler)
	r.POST("/payments/:id/receipt", uploadReceiptHandler)

	r.NoRoute(notFoundHandler)
}

func listPaymentTypesHandler(c *gin.Context) {
	types, err := paymentSvc.ListPaymentTypes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func createPaymentTypeHandler(c *gin.Context) {
	var req paymentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	pt, err := paymentSvc.CreatePaymentType(c.Request.Context(), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, pt)
}

// bindPaymentQuery parses the list/export filters.
func bindPaymentQuery(c *gin.Context) (payments.Filter, bool) {
	var q paymentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindError(err))
		return payments.Filter{}, false
	}
	return q.filter(), true
}

func listPaymentsHandler(c *gin.Context) {
	f, ok := bindPaymentQuery(c)
	if !ok {
		return
	}
	items, err := paymentSvc.ListPayments(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func exportPaymentsHandler(c *gin.Context) {
	f, ok := bindPaymentQuery(c)
	if !ok {
		return
	}
	items, err := paymentSvc.ListPayments(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var buf bytes.Buffer
	if err := payments.WriteXLSX(&buf, items); err != nil {
		_ = c.Error(apperr.Internal(fmt.Errorf("write xlsx: %w", err)))
		return
	}
	name := fmt.Sprintf("payments-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func getPaymentHandler(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	p, err := paymentSvc.GetPayment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func createPaymentHandler(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	p, err := paymentSvc.CreatePayment(c.Request.Context(), req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func updatePaymentHandler(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	p, err := paymentSvc.UpdatePayment(c.Request.Context(), id, req.input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func deletePaymentHandler(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	if err := paymentSvc.DeletePayment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// paymentID parses the :id path parameter as a positive integer.
func paymentID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		_ = c.Error(apperr.Validation("invalid payment id"))
		return 0, false
	}
	return uint(v), true
}
