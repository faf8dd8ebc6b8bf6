package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

// ReceiptRenderer turns a completed record into a document. Output depends only
// on the record, so the same record always renders the same bytes.
type ReceiptRenderer interface {
	Render(order models.PayableOrder) ([]byte, error)
}

const (
	receiptWidth      = 480
	receiptLineHeight = 20
	receiptMargin     = 24
)

type PNGReceiptRenderer struct {
	organization string
}

func NewPNGReceiptRenderer(organization string) *PNGReceiptRenderer {
	return &PNGReceiptRenderer{organization: organization}
}

func (r *PNGReceiptRenderer) Render(order models.PayableOrder) ([]byte, error) {
	if order.PaymentStatus != models.PaymentCompleted {
		return nil, fmt.Errorf("order %s is %s, receipts are only issued for completed payments", order.ID, order.PaymentStatus)
	}
	lines := receiptLines(r.organization, order)

	height := receiptMargin*2 + len(lines)*receiptLineHeight
	img := image.NewRGBA(image.Rect(0, 0, receiptWidth, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, line := range lines {
		drawString(img, receiptMargin, receiptMargin+(i+1)*receiptLineHeight-6, line, color.Black)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func receiptLines(organization string, order models.PayableOrder) []string {
	policy, _ := models.PolicyFor(order.Kind)
	payer := order.Payer()

	lines := []string{
		organization,
		policy.ReceiptTitle,
		"",
		"Receipt No:   " + order.ReceiptNumber,
		"Record ID:    " + order.ID,
		"Received from: " + payer.Name,
		"Email:        " + payer.Email,
		"Amount:       " + FormatAmount(order.Amount, order.Currency),
	}
	if order.PaymentDate != nil {
		lines = append(lines, "Paid on:      "+order.PaymentDate.UTC().Format("02 Jan 2006 15:04 MST"))
	}
	if order.GatewayPaymentID != nil {
		lines = append(lines, "Payment ref:  "+*order.GatewayPaymentID)
	}
	if order.PaymentMethod != "" {
		lines = append(lines, "Method:       "+order.PaymentMethod)
	}
	if policy.TracksLifecycle && order.ValidUntil != nil {
		lines = append(lines, "Valid until:  "+order.ValidUntil.UTC().Format("02 Jan 2006"))
	}
	return lines
}

func drawString(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// FormatAmount renders minor units as a fixed two-decimal amount, e.g. "INR 500.00".
func FormatAmount(minor int64, currency string) string {
	return currency + " " + decimal.New(minor, -2).StringFixed(2)
}

// ReceiptFilename is stable for a given record: payer slug plus receipt number.
func ReceiptFilename(order models.PayableOrder) string {
	return fmt.Sprintf("receipt-%s-%s.png", slug.Make(order.Payer().Name), order.ReceiptNumber)
}

// ReceiptArchive keeps a copy of issued receipts.
type ReceiptArchive interface {
	Store(ctx context.Context, order models.PayableOrder, filename string, data []byte) (string, error)
}

// S3PutObjectAPI is the slice of *s3.Client the archive needs.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3ReceiptArchive struct {
	client S3PutObjectAPI
	bucket string
	region string
}

func NewS3ReceiptArchive(client S3PutObjectAPI, bucket, region string) *S3ReceiptArchive {
	return &S3ReceiptArchive{client: client, bucket: bucket, region: region}
}

func (a *S3ReceiptArchive) Store(ctx context.Context, order models.PayableOrder, filename string, data []byte) (string, error) {
	year := time.Now().UTC().Year()
	if order.PaymentDate != nil {
		year = order.PaymentDate.UTC().Year()
	}
	key := fmt.Sprintf("receipts/%s/%d/%s", order.Kind, year, filename)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
		Metadata: map[string]string{
			"order-id":       order.ID,
			"receipt-number": order.ReceiptNumber,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt to S3: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key), nil
}
