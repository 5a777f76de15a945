package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cartorio/pkg/apperr"
	"cartorio/pkg/receipts"

	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

// uploadReceiptHandler stores the multipart "receipt" file and records its path on the payment.
func uploadReceiptHandler(c *gin.Context) {
	id, ok := paymentID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := paymentSvc.GetPayment(ctx, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, receipts.MaxSize+multipartOverhead)
	file, err := c.FormFile("receipt")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			_ = c.Error(apperr.Validation(receipts.MsgTooLarge))
			return
		}
		_ = c.Error(apperr.Validation(receipts.MsgNoFile))
		return
	}
	if err := receipts.Validate(file); err != nil {
		_ = c.Error(err)
		return
	}

	name := receipts.GenerateName(file.Filename, file.Header.Get("Content-Type"), time.Now())
	full := filepath.Join(receiptStore.Dir(), name)
	if err := c.SaveUploadedFile(file, full); err != nil {
		_ = c.Error(apperr.Internal(fmt.Errorf("save receipt: %w", err)))
		return
	}

	rel := receipts.RelPath(name)
	if _, err := paymentSvc.SetReceiptPath(ctx, id, rel); err != nil {
		_ = c.Error(err)
		return
	}
	slog.Info("receipt stored", "payment_id", id, "path", rel, "size", file.Size)
	c.JSON(http.StatusOK, gin.H{"message": "receipt uploaded", "receiptPath": rel})
}
