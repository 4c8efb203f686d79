package bot

// Reply texts. One message per rejection condition so the booking gate's
// precedence is visible to the user.
const (
	MsgHelpTitle = "How to get tickets"
	MsgHelpBody  = "Send \"book <activity>\" to grab a ticket, \"cancel <activity>\" to return it, " +
		"\"ticket <activity>\" to show it again. Bind your student id first with \"bind\"."

	MsgBindAccount = "Open the account page from the menu and enter your student id to bind it."
	MsgUnbound     = "Your student id has been unbound."

	MsgActivityNotFound       = "Sorry, we couldn't find that activity :("
	MsgCancelActivityNotFound = "Sorry, there is no such activity to cancel a ticket for."
	MsgIDNotBound             = "Please bind your student id first (send \"bind\")."
	MsgBookNotStarted         = "Booking hasn't started yet, please come back later."
	MsgBookEnded              = "Booking has already ended."
	MsgSoldOut                = "Sorry, tickets are sold out T T"
	MsgServiceBusy            = "The server is a bit busy right now, please try again T T"
	MsgNoTicket               = "You don't hold a ticket for this activity."
	MsgCancelComplete         = "Your ticket has been cancelled."

	MsgBookSuccessTitle   = "You got a ticket!"
	MsgWithdrawTitle      = "Your ticket"
	MsgBookEmpty          = "There is nothing to book right now."
	MsgTicketEmpty        = "You don't hold any tickets."
	MsgDefault            = "Sorry, we couldn't find what you were looking for :("
	MsgInternalError      = "Sorry, the server is having a moment and can't answer right now T T"
	MsgBookMissingKey     = "Please tell us which activity: \"book <activity>\"."
	MsgCancelMissingKey   = "Please tell us which activity: \"cancel <activity>\"."
	MsgWithdrawMissingKey = "Please tell us which activity: \"ticket <activity>\"."
)
