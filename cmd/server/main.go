package main

import "leadflow/internal/app"

// @title           leadflow API
// @version         1.0
// @description     Multi-tenant CRM kanban pipeline: stages, validation rules, transitions and ordering.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
