package routes

import (
	"github.com/gin-gonic/gin"

	bookcontroller "github.com/KeshavWanjale/Book-Store/controllers/book"
	"github.com/KeshavWanjale/Book-Store/middleware"
)

// SetupBookRoutes registers the "/books" endpoints. Reads are open to any
// authenticated user, writes require the superuser flag.
func SetupBookRoutes(r *gin.Engine, d Deps) {
	bookGroup := r.Group("/books")
	bookGroup.Use(middleware.ValidateToken(d.DB, d.Tokens))
	{
		bookGroup.GET("", bookcontroller.GetBooks(d.DB, d.Books)) // GET /books

		admin := bookGroup.Group("")
		admin.Use(middleware.RequireSuperuser())
		{
			admin.POST("", bookcontroller.CreateBook(d.DB, d.Books))       // POST /books
			admin.PUT("/:id", bookcontroller.UpdateBook(d.DB, d.Books))    // PUT /books/:id
			admin.DELETE("/:id", bookcontroller.DeleteBook(d.DB, d.Books)) // DELETE /books/:id
			admin.GET("/export", bookcontroller.ExportBooksToExcel(d.DB))  // GET /books/export
		}
	}
}
