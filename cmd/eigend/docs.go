package main

// General API documentation for swaggo. Run `swag init -g cmd/eigend/docs.go`
// to regenerate docs/.
//
// @title           eigend API
// @version         1.0
// @description     Local API of the eigend assistant daemon: model lifecycle, downloads, chats and settings.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
