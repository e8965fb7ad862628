/*
Package auth keeps track of who is signed in.

The hosted identity service is reached through [Provider]; [GoTrueProvider]
implements it against a Supabase project using the PKCE flow for both magic
links and OAuth redirects. [Store] is the one place the rest of the program
asks "who is logged in", and doubles as the [oauth2.TokenSource] the API
client uses for bearer tokens.
*/
package auth
