package notifier

import "html/template"

var reminderTemplate = template.Must(template.New("reminder").Parse(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 20px; text-align: center;">
        <h1 style="color: white; margin: 0;">📚 Deadline Reminder</h1>
    </div>
    <div style="padding: 30px; background: #f8f9fa;">
        <p>Hi <strong>{{.Name}}</strong>,</p>
        <p>This is a friendly reminder about your upcoming deadline:</p>
        <div style="background: white; padding: 20px; border-radius: 10px; border-left: 4px solid #667eea;">
            <h2 style="margin: 0 0 10px 0; color: #333;">{{.Title}}</h2>
            <p style="color: #666; margin: 5px 0;"><strong>Type:</strong> {{.Type}}</p>
            <p style="color: #666; margin: 5px 0;"><strong>Due:</strong> {{.Due}}</p>
            <p style="color: #666; margin: 5px 0;"><strong>Description:</strong> {{.Description}}</p>
        </div>
        <p style="margin-top: 20px;">Good luck! 🍀</p>
        <hr style="border: none; border-top: 1px solid #ddd; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This email was sent by Smart Deadline Reminder System.</p>
    </div>
</body>
</html>
`))

const testEmailBody = `<html>
<body style="font-family: Arial, sans-serif;">
    <h1>✅ Test Successful!</h1>
    <p>Your email configuration is working correctly.</p>
    <p>You will now receive reminders for your upcoming deadlines.</p>
</body>
</html>
`
