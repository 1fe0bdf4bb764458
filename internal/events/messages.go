package events

import (
	"fmt"
	"strings"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/mail"
)

func orderConfirmationMail(e OrderConfirmedEvent) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", e.CustomerName)
	fmt.Fprintf(&b, "Your order %s has been confirmed.\n\n", e.OrderNumber)
	for _, l := range e.Lines {
		fmt.Fprintf(&b, "  %-30s %8s x %8s = %10s\n",
			l.ProductName, l.Weight.String(), l.UnitPrice.StringFixed(2), l.TotalPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal:     %s\n", e.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Delivery fee: %s\n", e.DeliveryFee.StringFixed(2))
	fmt.Fprintf(&b, "Grand total:  %s\n", e.TotalAmount.StringFixed(2))
	b.WriteString("\nThank you for shopping with us.\n")

	return mail.Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("Order %s confirmed", e.OrderNumber),
		Body:    b.String(),
	}
}

func adminOrderCancelledMail(to string, e OrderCancelledEvent) mail.Message {
	return mail.Message{
		To:      to,
		Subject: fmt.Sprintf("Order %s cancelled by customer", e.OrderNumber),
		Body: fmt.Sprintf("Customer %s (%s) cancelled order %s worth %s.\nReason: %s\n",
			e.CustomerName, e.CustomerEmail, e.OrderNumber, e.TotalAmount.StringFixed(2), e.Reason),
	}
}

func garlandReminderMail(e GarlandReminderEvent) mail.Message {
	return mail.Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("Reminder: %s delivery on %s", e.ProductName, e.DeliveryAt.Format("02 Jan 2006 15:04")),
		Body: fmt.Sprintf("Hello %s,\n\nYour %s from order %s is scheduled for delivery at %s.\n",
			e.CustomerName, e.ProductName, e.OrderNumber, e.DeliveryAt.Format("02 Jan 2006 15:04 MST")),
	}
}

func transportConfirmedMail(to string, e TransportBookingEvent) mail.Message {
	return mail.Message{
		To:      to,
		Subject: fmt.Sprintf("Transport booking %s confirmed", e.BookingNumber),
		Body: fmt.Sprintf("Booking %s for %s (%s) is confirmed.\nFrom: %s\nTo: %s\nDistance: %s km\nCharge: %s\n",
			e.BookingNumber, e.CustomerName, e.CustomerPhone, e.FromAddress, e.ToAddress,
			e.DistanceKm.StringFixed(2), e.ChargeAmount.StringFixed(2)),
	}
}

func partyHallBookedMail(e PartyHallBookingEvent, support string) mail.Message {
	return mail.Message{
		To:      e.CustomerEmail,
		Subject: fmt.Sprintf("Party hall booking %s", e.BookingNumber),
		Body:    partyHallBookedText(e, support) + "\n",
	}
}

func partyHallBookedText(e PartyHallBookingEvent, support string) string {
	addOns := "none"
	if len(e.AddOns) > 0 {
		addOns = strings.Join(e.AddOns, ", ")
	}
	return fmt.Sprintf(
		"Your party hall booking %s on %s from %s to %s for %d guests is confirmed. Add-ons: %s. Total: %s. For any changes contact %s.",
		e.BookingNumber, e.EventDate, e.StartTime.Format("15:04"), e.EndTime.Format("15:04"),
		e.PersonCount, addOns, e.TotalCharge.StringFixed(2), support)
}
