package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/printworks-studio/printworks-api/audit"
	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"github.com/printworks-studio/printworks-api/services"
)

// ProductRequest is the request body for creating or updating a product.
type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	Active      *bool   `json:"active"`
}

var productTrackedFields = []string{"name", "sku", "description", "price", "active"}

// ListProducts handles GET /api/v1/products
func ListProducts(c *gin.Context) {
	db := config.GetDB()

	query := db.Order("name ASC")
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		databaseError(c, "Failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// GetProduct handles GET /api/v1/products/:id
func GetProduct(c *gin.Context) {
	product := findProduct(c)
	if product == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// CreateProduct handles POST /api/v1/products
func CreateProduct(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	product := models.Product{
		Name:        req.Name,
		SKU:         strings.ToUpper(strings.TrimSpace(req.SKU)),
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	db := config.GetDB()
	if err := db.Create(&product).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SKU_EXISTS",
					"message": "A product with this SKU already exists",
				},
			})
			return
		}
		databaseError(c, "Failed to create product")
		return
	}

	services.RecordAudit(models.CategoryProducts, "product.create", actor, map[string]interface{}{
		"name": product.Name,
		"sku":  product.SKU,
	}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct handles PUT /api/v1/products/:id
func UpdateProduct(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	product := findProduct(c)
	if product == nil {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	before := productRecord(product)

	product.Name = req.Name
	product.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	product.Description = req.Description
	product.Price = req.Price
	if req.Active != nil {
		product.Active = *req.Active
	}

	db := config.GetDB()
	if err := db.Save(product).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SKU_EXISTS",
					"message": "A product with this SKU already exists",
				},
			})
			return
		}
		databaseError(c, "Failed to update product")
		return
	}

	if changes := audit.Diff(before, productRecord(product), productTrackedFields); len(changes) > 0 {
		services.RecordAudit(models.CategoryProducts, "product.update", actor, map[string]interface{}{
			"name":    product.Name,
			"sku":     product.SKU,
			"changes": changes,
		}, c.ClientIP())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// DeleteProduct handles DELETE /api/v1/products/:id
func DeleteProduct(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		return
	}

	product := findProduct(c)
	if product == nil {
		return
	}

	db := config.GetDB()
	if err := db.Delete(product).Error; err != nil {
		databaseError(c, "Failed to delete product")
		return
	}

	services.RecordAudit(models.CategoryProducts, "product.delete", actor, map[string]interface{}{
		"name": product.Name,
		"sku":  product.SKU,
	}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}

func findProduct(c *gin.Context) *models.Product {
	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return nil
	}
	return &product
}

func productRecord(p *models.Product) map[string]interface{} {
	return map[string]interface{}{
		"name":        p.Name,
		"sku":         p.SKU,
		"description": p.Description,
		"price":       p.Price,
		"active":      p.Active,
	}
}
