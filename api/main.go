package main

import "github.com/smartmilk/smart-milk/api/cmd"

// @title Smart Milk API
// @version 1.0
// @description User management and dashboard metrics for the Smart Milk container.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cmd.Execute()
}
