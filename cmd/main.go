// cmd/main.go
package main

import (
	"go-catalog-api/app"
)

// @title           Go Catalog API
// @version         1.0
// @description     Multi-channel catalog backend: identity, assets, categories and per-channel product schemas.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
