package mailer

import "fmt"

var monthsTR = [...]string{
	"", "Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

func monthTR(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthsTR[month]
}

const layout = `<!DOCTYPE html>
<html lang="tr">
<head><meta charset="UTF-8" /></head>
<body style="font-family: Arial, sans-serif; background: #f8fafc; margin: 0; padding: 40px 20px;">
  <table width="600" align="center" cellpadding="0" cellspacing="0" style="background: #fff; border-radius: 12px; overflow: hidden;">
    <tr>
      <td style="background: #1e293b; padding: 32px; text-align: center;">
        <h1 style="color: #fff; margin: 0; font-size: 24px;">KolayAidat</h1>
        <p style="color: #94a3b8; margin: 4px 0 0; font-size: 14px;">Apartman Aidat Yönetimi</p>
      </td>
    </tr>
    <tr>
      <td style="padding: 40px 32px;">%s</td>
    </tr>
    <tr>
      <td style="background: #f8fafc; padding: 20px 32px; border-top: 1px solid #e2e8f0; text-align: center;">
        <p style="color: #94a3b8; font-size: 12px; margin: 0;">Bu e-postayı beklemediyseniz görmezden gelebilirsiniz.</p>
      </td>
    </tr>
  </table>
</body>
</html>`

func inviteBody(inviteURL, apartmentName, unitNumber, invitedBy string) string {
	content := fmt.Sprintf(`
      <h2 style="color: #1e293b; margin: 0 0 16px; font-size: 20px;">Apartman sistemine davet edildiniz</h2>
      <p style="color: #475569; line-height: 1.6; margin: 0 0 12px;">
        <strong>%s</strong> tarafından <strong>%s</strong> apartmanının
        <strong>Daire %s</strong> için sisteme davet edildiniz.
      </p>
      <p style="color: #475569; line-height: 1.6; margin: 0 0 32px;">
        Aşağıdaki butona tıklayarak şifrenizi belirleyin ve hesabınızı oluşturun.
        Bu bağlantı <strong>48 saat</strong> geçerlidir.
      </p>
      <div style="text-align: center; margin-bottom: 32px;">
        <a href="%s" style="background: #1e293b; color: #fff; padding: 14px 32px; border-radius: 8px; text-decoration: none; font-size: 16px; font-weight: 600; display: inline-block;">Hesabımı Oluştur</a>
      </div>
      <p style="color: #94a3b8; font-size: 12px; margin: 0;">
        Butona tıklayamıyorsanız bu bağlantıyı tarayıcınıza yapıştırın:<br/>
        <a href="%s" style="color: #3b82f6; word-break: break-all;">%s</a>
      </p>`,
		invitedBy, apartmentName, unitNumber, inviteURL, inviteURL, inviteURL)
	return fmt.Sprintf(layout, content)
}

func paymentStatusBody(residentName string, approved bool, month, year int, amount float64, rejectionReason string) string {
	statusText := "reddedildi"
	statusColor := "#dc2626"
	if approved {
		statusText = "onaylandı"
		statusColor = "#16a34a"
	}

	content := fmt.Sprintf(`
      <h2 style="color: %s; margin: 0 0 16px;">Dekontunuz %s</h2>
      <p style="color: #475569; margin: 0 0 8px;">Merhaba <strong>%s</strong>,</p>
      <p style="color: #475569; margin: 0 0 20px;">
        <strong>%s %d</strong> ayına ait <strong>%.2f ₺</strong> tutarındaki aidat dekontunuz
        <strong style="color: %s;">%s</strong>.
      </p>`,
		statusColor, statusText, residentName, monthTR(month), year, amount, statusColor, statusText)

	if !approved && rejectionReason != "" {
		content += fmt.Sprintf(`
      <div style="background: #fef2f2; border: 1px solid #fecaca; border-radius: 8px; padding: 16px; margin-bottom: 20px;">
        <p style="color: #dc2626; margin: 0; font-size: 14px;"><strong>Red sebebi:</strong> %s</p>
      </div>
      <p style="color: #475569; font-size: 14px;">Lütfen dekontunuzu tekrar yükleyin.</p>`,
			rejectionReason)
	}

	return fmt.Sprintf(layout, content)
}

func passwordResetBody(resetURL string) string {
	content := fmt.Sprintf(`
      <h2 style="color: #1e293b; margin: 0 0 16px; font-size: 20px;">Şifre sıfırlama talebi</h2>
      <p style="color: #475569; line-height: 1.6; margin: 0 0 32px;">
        Şifrenizi sıfırlamak için aşağıdaki butona tıklayın.
        Bu bağlantı <strong>1 saat</strong> geçerlidir.
      </p>
      <div style="text-align: center; margin-bottom: 32px;">
        <a href="%s" style="background: #1e293b; color: #fff; padding: 14px 32px; border-radius: 8px; text-decoration: none; font-size: 16px; font-weight: 600; display: inline-block;">Şifremi Sıfırla</a>
      </div>
      <p style="color: #94a3b8; font-size: 12px; margin: 0;">
        Bu talebi siz yapmadıysanız bu e-postayı görmezden gelebilirsiniz.
      </p>`,
		resetURL)
	return fmt.Sprintf(layout, content)
}
