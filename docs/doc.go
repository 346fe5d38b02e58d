// Package docs provides generated OpenAPI documentation.
//
// Reader API
//
//	@title			Reader API
//	@version		1.0
//	@description	E-book reading service: upload EPUB archives and read them page by page.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/reader
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/reader/serve.go -o ./swagger --outputTypes go --parseDependency --parseInternal
