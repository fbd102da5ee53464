package email

const verificationEmailSubject = "Please verify your email address"
const verificationEmailTemplate = `
Hi %[1]s,

Thanks for getting in touch! Please visit

 %[2]s/api/verify?token=%[3]s

to confirm this email address. Once confirmed, we'll get back to you as soon as we can.

If you didn't submit our contact form, you can safely ignore this email.
`

const ownerEmailSubject = "New contact form submission"
const ownerEmailTemplate = `
You have a new contact form submission.

Name:     %[1]s
Email:    %[2]s
Service:  %[3]s
Budget:   %[4]s
Deadline: %[5]s

Message:

%[6]s
`
