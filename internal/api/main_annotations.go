// @title           Talent portal API
// @version         1.0
// @description     Current user and theme preferences for the talent portal front end.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and a platform access token. Browsers use the signed-in device instead.
package api
