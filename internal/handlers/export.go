package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ExportProducts streams the full catalog as an Excel workbook for the
// admin panel.
func ExportProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/export"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Products")
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to create sheet")
			return
		}

		headers := []string{
			"ID", "LegacyID", "Name", "Category", "Brand", "Price",
			"OriginalPrice", "Stock", "Rating", "NumReviews", "Featured",
			"Tags", "CreatedAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, p := range products {
			row := sheet.AddRow()
			row.AddCell().SetValue(p.ID.Hex())
			row.AddCell().SetValue(p.LegacyID)
			row.AddCell().SetValue(p.Name)
			row.AddCell().SetValue(p.Category)
			row.AddCell().SetValue(p.Brand)
			row.AddCell().SetValue(p.Price)
			row.AddCell().SetValue(p.OriginalPrice)
			row.AddCell().SetValue(p.Stock)
			row.AddCell().SetValue(p.Rating)
			row.AddCell().SetValue(p.NumReviews)
			row.AddCell().SetValue(p.Featured)
			row.AddCell().SetValue(strings.Join(p.Tags, ","))
			row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")

		if err := file.Write(c.Writer); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "failed to write file")
			return
		}
	}
}
