package email

import (
	"fmt"
	"html"
)

const defaultAppName = "Odonto"

// CredentialsEmailData fills the account credential templates.
type CredentialsEmailData struct {
	FirstName string
	Email     string
	Password  string
	Role      string
	LoginURL  string
	AppName   string
}

// BuildWelcomeEmail announces a new account with its initial password.
// language: "es" (default) or "en".
func BuildWelcomeEmail(data CredentialsEmailData, language string) Message {
	appName := data.AppName
	if appName == "" {
		appName = defaultAppName
	}

	var subject, greeting, line1, userLabel, passLabel, line2, closing string
	if language == "en" {
		subject = fmt.Sprintf("Your %s account", appName)
		greeting = fmt.Sprintf("Hi %s,", data.FirstName)
		line1 = fmt.Sprintf("An account with the role %q was created for you.", data.Role)
		userLabel = "User:"
		passLabel = "Initial password:"
		line2 = "Please change the password after your first login."
		closing = fmt.Sprintf("The %s Team", appName)
	} else {
		subject = fmt.Sprintf("Tu cuenta de %s", appName)
		greeting = fmt.Sprintf("Hola %s,", data.FirstName)
		line1 = fmt.Sprintf("Se creó una cuenta con el rol %q para vos.", data.Role)
		userLabel = "Usuario:"
		passLabel = "Contraseña inicial:"
		line2 = "Cambiá la contraseña después del primer ingreso."
		closing = fmt.Sprintf("El equipo de %s", appName)
	}

	return credentialsMessage(data, subject, greeting, line1, userLabel, passLabel, line2, closing)
}

// BuildPasswordResetEmail carries a password set by an administrator.
func BuildPasswordResetEmail(data CredentialsEmailData, language string) Message {
	appName := data.AppName
	if appName == "" {
		appName = defaultAppName
	}

	var subject, greeting, line1, userLabel, passLabel, line2, closing string
	if language == "en" {
		subject = fmt.Sprintf("Your %s password was reset", appName)
		greeting = fmt.Sprintf("Hi %s,", data.FirstName)
		line1 = "An administrator reset your password."
		userLabel = "User:"
		passLabel = "New password:"
		line2 = "If you did not ask for this, contact the clinic administration."
		closing = fmt.Sprintf("The %s Team", appName)
	} else {
		subject = fmt.Sprintf("Se restableció tu contraseña de %s", appName)
		greeting = fmt.Sprintf("Hola %s,", data.FirstName)
		line1 = "Un administrador restableció tu contraseña."
		userLabel = "Usuario:"
		passLabel = "Nueva contraseña:"
		line2 = "Si no lo pediste, comunicate con la administración de la clínica."
		closing = fmt.Sprintf("El equipo de %s", appName)
	}

	return credentialsMessage(data, subject, greeting, line1, userLabel, passLabel, line2, closing)
}

func credentialsMessage(data CredentialsEmailData, subject, greeting, line1, userLabel, passLabel, line2, closing string) Message {
	textBody := fmt.Sprintf(`%s

%s

%s %s
%s %s

%s
%s

%s`, greeting, line1, userLabel, data.Email, passLabel, data.Password, line2, data.LoginURL, closing)

	esc := html.EscapeString
	link := ""
	if data.LoginURL != "" {
		link = fmt.Sprintf(`<p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #0f766e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">%s</a>
    </p>`, esc(data.LoginURL), esc(data.LoginURL))
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">%s</h2>
    <p>%s</p>
    <p style="background-color: #f3f4f6; padding: 20px; border-radius: 6px; font-family: monospace;">
        %s %s<br>
        %s %s
    </p>
    <p>%s</p>
    %s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">
        %s
    </p>
</body>
</html>`, esc(greeting), esc(line1), esc(userLabel), esc(data.Email), esc(passLabel), esc(data.Password), esc(line2), link, esc(closing))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
