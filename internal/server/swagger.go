package server

//go:generate swag init -g swagger.go -o docs --parseDependency --parseInternal

// @title Crumb API
// @version 0.1
// @description Local dashboard backend for browser storage privacy audits.
// @contact.name Crumb Maintainers
// @contact.url https://github.com/raysh454/crumb
// @BasePath /
