package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func SendEmail(to, subject, htmlBody string) error {
	config := GetEmailConfig()
	if config.Host == "" || config.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return d.DialAndSend(m)
}

// Notification emails are fire-and-forget: failures are logged and
// never fail the operation that triggered them.

func SendWelcomeEmail(email, name string) {
	go func() {
		subject := "Welcome to Aroi!"
		body := fmt.Sprintf(`<h2>Welcome to Aroi, %s!</h2>
<p>Thank you for creating your account. You can now:</p>
<ul>
<li>Order from restaurants near you</li>
<li>Earn loyalty points on every order</li>
<li>Pay instantly from your Aroi wallet</li>
</ul>
<p>Enjoy your meal!</p>
<p>The Aroi Team</p>`, strings.Split(name, " ")[0])
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", email, err)
		}
	}()
}

func SendOrderConfirmation(email, name, orderNumber string, total float64) {
	go func() {
		subject := fmt.Sprintf("Order Confirmed - %s", orderNumber)
		body := fmt.Sprintf(`<h2>Order Confirmed!</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> has been placed successfully.</p>
<p>Order total: <strong>฿%.2f</strong></p>
<p>We'll notify you when your order status changes.</p>
<p>The Aroi Team</p>`, strings.Split(name, " ")[0], orderNumber, total)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send order confirmation to %s: %v", email, err)
		}
	}()
}

func SendOrderStatusUpdate(email, name, orderNumber, status string) {
	go func() {
		subject := fmt.Sprintf("Order Update - %s", orderNumber)
		body := fmt.Sprintf(`<h2>Order Update</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> is now: <strong>%s</strong></p>
<p>The Aroi Team</p>`, strings.Split(name, " ")[0], orderNumber, strings.ReplaceAll(status, "_", " "))
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send order status update to %s: %v", email, err)
		}
	}()
}

func SendTopUpReceipt(email, name string, amount, balance float64) {
	go func() {
		subject := "Wallet Top-Up Receipt"
		body := fmt.Sprintf(`<h2>Top-Up Successful</h2>
<p>Hi %s,</p>
<p>Your wallet has been topped up with <strong>฿%.2f</strong>.</p>
<p>New balance: <strong>฿%.2f</strong></p>
<p>The Aroi Team</p>`, strings.Split(name, " ")[0], amount, balance)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send top-up receipt to %s: %v", email, err)
		}
	}()
}

func SendPasswordResetEmail(email, name, resetURL string) {
	go func() {
		subject := "Reset Your Aroi Password"
		body := fmt.Sprintf(`<h2>Password Reset</h2>
<p>Hi %s,</p>
<p>We received a request to reset your password. Click the link below to choose a new one. The link expires in 1 hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you didn't request this, you can safely ignore this email.</p>
<p>The Aroi Team</p>`, strings.Split(name, " ")[0], resetURL)
		if err := SendEmail(email, subject, body); err != nil {
			log.Printf("Failed to send password reset email to %s: %v", email, err)
		}
	}()
}
